package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/resolver"
	"github.com/yegors/procroute/internal/routepoints"
	"github.com/yegors/procroute/pkg/logger"
)

var (
	kaylnSFO = procdb.Row{EffectiveDate: "2024-01-25", Name: "KAYLN THREE", FullCode: "KAYLN3.KAYLN", ServedGroup: "KSFO", Transition: "KAYLN3.SMUUV", RoutePoints: "KAYLN SMUUV"}
	kaylnOAK = procdb.Row{EffectiveDate: "2024-01-25", Name: "KAYLN THREE", FullCode: "KAYLN3.KAYLN", ServedGroup: "KOAK", Transition: "KAYLN3.SMUUV", RoutePoints: "KAYLN OAKEE SMUUV"}
	wyndeJFK = procdb.Row{EffectiveDate: "2024-01-25", Name: "WYNDE THREE", FullCode: "WYNDE.WYNDE3", ServedGroup: "KJFK", Transition: "SMUUV.WYNDE3", RoutePoints: "SMUUV WYNDE"}
	wyndeLGA = procdb.Row{EffectiveDate: "2024-01-25", Name: "WYNDE THREE", FullCode: "WYNDE.WYNDE3", ServedGroup: "KLGA", Transition: "SMUUV.WYNDE3", RoutePoints: "SMUUV WYNDE LGAAA"}
)

func newResolver(dp, star []procdb.Row) *resolver.Resolver {
	dpDB, _ := procdb.Build(procdb.DP, dp)
	starDB, _ := procdb.Build(procdb.STAR, star)
	return resolver.New(procdb.Snapshot{DP: dpDB, STAR: starDB})
}

func newPreprocessor(ids ...string) *Preprocessor {
	return NewPreprocessor(routepoints.NewSet(ids...), logger.NewNop())
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"KSFO", "KAYLN3", "SMUUV"}, Tokenize("  ksfo KAYLN3\tsmuuv "))
	assert.Empty(t, Tokenize(""))
}

func TestPreprocess_NeighborConsumption(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO}, []procdb.Row{wyndeJFK})
	result := newPreprocessor().Preprocess(r, []string{"KAYLN3", "SMUUV"})

	assert.Equal(t, []string{"KAYLN3.SMUUV"}, result.Tokens)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, []string{"KAYLN3", "SMUUV"}, result.Steps[0].Input)
	assert.True(t, result.Steps[0].ConsumedNeighbor)
	assert.Equal(t, []string{"KSFO"}, result.Origins)
	require.NotNil(t, result.LastDP)
	assert.Equal(t, "KAYLN3.SMUUV", result.LastDP.Code)
	assert.Nil(t, result.LastSTAR)
}

func TestPreprocess_STARConsumesPreviousOutput(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO}, []procdb.Row{wyndeJFK})
	result := newPreprocessor().Preprocess(r, []string{"KAYLN3.SMUUV", "smuuv", "WYNDE3"})

	assert.Equal(t, []string{"KAYLN3.SMUUV", "SMUUV.WYNDE3"}, result.Tokens)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, []string{"SMUUV", "WYNDE3"}, result.Steps[1].Input)
	assert.Equal(t, procdb.STAR, result.Steps[1].Family)
	assert.Equal(t, []string{"KJFK"}, result.Destinations)
}

func TestPreprocess_Combined(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO}, []procdb.Row{wyndeJFK})
	tokens := []string{"KAYLN3.SMUUV.WYNDE3"}
	result := newPreprocessor().Preprocess(r, tokens)

	assert.Equal(t, []string{"KAYLN3.SMUUV", "SMUUV.WYNDE3"}, result.Tokens)
	combined := 0
	for _, step := range result.Steps {
		if step.Combined {
			combined++
		}
	}
	assert.Equal(t, 2, combined)
	assert.LessOrEqual(t, len(result.Tokens), len(tokens)+1)
	assert.Equal(t, []string{"KSFO"}, result.Origins)
	assert.Equal(t, []string{"KJFK"}, result.Destinations)
}

func TestPreprocess_FanOutKeepsEveryOrigin(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO, kaylnOAK}, []procdb.Row{wyndeJFK})
	result := newPreprocessor("KSFO", "KOAK").Preprocess(r, []string{"KAYLN3", "SMUUV"})

	assert.False(t, result.ExplicitOrigin)
	assert.Equal(t, []string{"KSFO", "KOAK"}, result.Origins)
}

func TestPreprocess_ExplicitEndpoints(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO, kaylnOAK}, []procdb.Row{wyndeJFK, wyndeLGA})
	p := newPreprocessor("KSFO", "KJFK")

	result := p.Preprocess(r, []string{"SFO", "KAYLN3.SMUUV", "SMUUV.WYNDE3", "KJFK"})
	assert.True(t, result.ExplicitOrigin)
	assert.True(t, result.ExplicitDestination)
	assert.Empty(t, result.Origins)
	assert.Empty(t, result.Destinations)
	assert.Equal(t, []string{"SFO", "KAYLN3.SMUUV", "SMUUV.WYNDE3", "KJFK"}, result.Tokens)

	// unknown to the route points table: not explicit
	result = p.Preprocess(r, []string{"KOAK", "KAYLN3.SMUUV", "SMUUV.WYNDE3", "KLGA"})
	assert.False(t, result.ExplicitOrigin)
	assert.False(t, result.ExplicitDestination)
	assert.Equal(t, []string{"KSFO", "KOAK"}, result.Origins)
	assert.Equal(t, []string{"KJFK", "KLGA"}, result.Destinations)

	// a single token is never an explicit destination
	result = p.Preprocess(r, []string{"KSFO"})
	assert.True(t, result.ExplicitOrigin)
	assert.False(t, result.ExplicitDestination)
}

func TestPreprocess_Idempotent(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO, kaylnOAK}, []procdb.Row{wyndeJFK})
	p := newPreprocessor("KSFO")

	inputs := [][]string{
		{"KAYLN3", "SMUUV"},
		{"KSFO", "KAYLN3SMUUV", "J80", "SMUUVWYNDE3", "KJFK"},
		{"KAYLN2.SMUUV.WYNDE#"},
		{"KAYLN3.SMUUV", "SMUUV", "WYNDE3"},
		{"kayln3"},
		{"DCT", "ZZZZZ"},
	}
	for _, in := range inputs {
		once := p.Preprocess(r, in)
		twice := p.Preprocess(r, once.Tokens)
		assert.Equal(t, once.Tokens, twice.Tokens, "%v", in)
	}
}

func TestPreprocess_EmptyDatabasePassesThrough(t *testing.T) {
	r := newResolver(nil, nil)
	result := newPreprocessor().Preprocess(r, []string{"ksfo", "KAYLN3", "SMUUV"})
	assert.Equal(t, []string{"KSFO", "KAYLN3", "SMUUV"}, result.Tokens)
	assert.Empty(t, result.Steps)
	assert.Empty(t, result.Origins)

	result = newPreprocessor().Preprocess(r, nil)
	assert.Empty(t, result.Tokens)
}

func TestExpand_SplicesWaypoints(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO, kaylnOAK}, []procdb.Row{wyndeJFK, wyndeLGA})
	e := NewExpander(logger.NewNop())

	out := e.Expand(r, []string{"KSFO", "KAYLN3.SMUUV", "SMUUV.WYNDE3", "KJFK"}, Inference{ExplicitOrigin: true, ExplicitDestination: true}, ExpandOptions{
		Solid: []bool{true, false, true, true},
	})
	assert.Equal(t, []string{"KSFO", "KAYLN", "SMUUV", "SMUUV", "WYNDE", "KJFK"}, out.Waypoints)
	assert.Equal(t, []bool{true, false, false, true, true, true}, out.Solid)
	assert.Empty(t, out.Fans)
	assert.Equal(t, "KSFO", out.Origin)
	assert.Equal(t, "KJFK", out.Destination)

	out = e.Expand(r, []string{"OAK", "KAYLN3.SMUUV", "SMUUV.WYNDE3", "LGA"}, Inference{}, ExpandOptions{Solid: []bool{false}})
	assert.Equal(t, []string{"OAK", "KAYLN", "OAKEE", "SMUUV", "SMUUV", "WYNDE", "LGAAA", "LGA"}, out.Waypoints)
	for _, s := range out.Solid {
		assert.True(t, s, "mismatched mask means all solid")
	}
}

func TestExpand_OptionsOverrideDefaults(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO, kaylnOAK}, nil)
	e := NewExpander(logger.NewNop())

	out := e.Expand(r, []string{"KSFO", "KAYLN3.SMUUV"}, Inference{}, ExpandOptions{Origin: "oak"})
	assert.Equal(t, []string{"KSFO", "KAYLN", "OAKEE", "SMUUV"}, out.Waypoints)
	assert.Equal(t, "KOAK", out.Origin)
}

func TestExpand_FanOut(t *testing.T) {
	r := newResolver([]procdb.Row{kaylnSFO, kaylnOAK}, []procdb.Row{wyndeJFK, wyndeLGA})
	p := newPreprocessor()
	e := NewExpander(logger.NewNop())

	result := p.Preprocess(r, []string{"KAYLN3", "SMUUV", "WYNDE3"})
	require.Equal(t, []string{"KAYLN3.SMUUV", "WYNDE.WYNDE3"}, result.Tokens)

	out := e.Expand(r, []string{"KAYLN3.SMUUV", "SMUUV.WYNDE3"}, result.Inference, ExpandOptions{})
	assert.Equal(t, []FanSegment{
		{Kind: OriginFan, From: "KSFO", To: "KAYLN", Dashed: true},
		{Kind: OriginFan, From: "KOAK", To: "KAYLN", Dashed: true},
		{Kind: DestinationFan, From: "WYNDE", To: "KJFK", Dashed: true},
		{Kind: DestinationFan, From: "WYNDE", To: "KLGA", Dashed: true},
	}, out.Fans)

	// one candidate is not ambiguous
	out = e.Expand(r, []string{"KAYLN3.SMUUV"}, Inference{Origins: []string{"KSFO"}}, ExpandOptions{})
	assert.Empty(t, out.Fans)

	// explicit endpoints never fan
	out = e.Expand(r, []string{"KAYLN3.SMUUV"}, Inference{ExplicitOrigin: true, Origins: []string{"KSFO", "KOAK"}}, ExpandOptions{})
	assert.Empty(t, out.Fans)
}

func TestService_Process(t *testing.T) {
	store := procdb.NewStore(logger.NewNop())
	_, err := store.Load(procdb.DP, procdb.Table{
		Columns: []string{"EFF_DATE", "DP_COMPUTER_CODE", "ORIG_GROUP", "TRANSITION_COMPUTER_CODE", "ROUTE_POINTS"},
		Rows: [][]string{
			{"20240125", "KAYLN3.KAYLN", "KSFO", "KAYLN3.SMUUV", "KAYLN SMUUV"},
			{"20240125", "KAYLN3.KAYLN", "KOAK", "KAYLN3.SMUUV", "KAYLN SMUUV"},
		},
	})
	require.NoError(t, err)

	svc := NewService(store, routepoints.NewSet(), logger.NewNop())
	result, out := svc.Process(Tokenize("KAYLN3 SMUUV J80"), ExpandOptions{})
	assert.Equal(t, []string{"KAYLN3.SMUUV", "J80"}, result.Tokens)
	assert.Equal(t, []string{"KAYLN", "SMUUV", "J80"}, out.Waypoints)
	assert.Len(t, out.Fans, 2)
}
