package edn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint_RoundTrip(t *testing.T) {
	sources := []string{
		`[:person/name :person/age]`,
		`[{:friends ...} {:parent 3}]`,
		`[(:items {:limit 10 :order "desc"})]`,
		`[{[:panelA 1] {panelA [:boo]}}]`,
		`[(launch! {:id 7 :dry-run true :ratio 0.5 :note nil})]`,
		`["quote\" and \\ and\nnewline"]`,
		`[-3 2.0 1e+21]`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			f, err := ReadOne(src)
			require.NoError(t, err)

			printed := Print(f)
			assert.Equal(t, src, printed)

			again, err := ReadOne(printed)
			require.NoError(t, err)
			assert.Equal(t, ToValue(f), ToValue(again))
		})
	}
}

func TestPrint_FloatAlwaysHasFraction(t *testing.T) {
	assert.Equal(t, "2.0", Print(Float{Value: 2}))
	assert.Equal(t, "-0.25", Print(Float{Value: -0.25}))
}

func TestPrint_Constructors(t *testing.T) {
	f := Vec(K("a"), M(K("b"), Vec(K("c"))), L(Sym("go!"), M(K("n"), I(1))), Str("x"))
	assert.Equal(t, `[:a {:b [:c]} (go! {:n 1}) "x"]`, Print(f))
}

func TestM_OddPanics(t *testing.T) {
	assert.Panics(t, func() { M(K("a")) })
}
