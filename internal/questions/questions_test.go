package questions

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xerekinha/pyramid/internal/models"
)

func c(v int, s models.Suit) *models.Card {
	return &models.Card{ID: uuid.New(), Suit: s, Value: v, FaceUp: true}
}

func TestForDifficulty(t *testing.T) {
	assert.Len(t, For(Easy), 3)
	assert.Len(t, For(Normal), 5)
	assert.Len(t, For(Hard), 7)
	assert.Equal(t, For(Hard)[:3], For(Easy))
	assert.Equal(t, OddEven, For(Easy)[0].Type)
	assert.Equal(t, HaveNumber, For(Hard)[6].Type)

	_, ok := At(Easy, 3)
	assert.False(t, ok)
	q, ok := At(Normal, 4)
	require.True(t, ok)
	assert.Equal(t, HaveSuit, q.Type)
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("hard")
	require.NoError(t, err)
	assert.Equal(t, Hard, d)
	_, err = ParseDifficulty("insane")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	hand := []*models.Card{c(3, models.Hearts), c(9, models.Clubs)}

	tests := []struct {
		name   string
		qt     Type
		answer string
		drawn  *models.Card
		hand   []*models.Card
		want   bool
	}{
		{"odd on odd", OddEven, "odd", c(7, models.Spades), nil, true},
		{"even on odd", OddEven, "even", c(7, models.Spades), nil, false},
		{"even on even", OddEven, "even", c(12, models.Spades), nil, true},
		{"higher than last", HigherLower, "higher", c(10, models.Spades), hand, true},
		{"lower than last", HigherLower, "lower", c(10, models.Spades), hand, false},
		{"higher with empty hand", HigherLower, "higher", c(10, models.Spades), nil, false},
		{"inside inclusive low bound", InsideOutside, "inside", c(3, models.Spades), hand, true},
		{"inside inclusive high bound", InsideOutside, "inside", c(9, models.Spades), hand, true},
		{"outside", InsideOutside, "outside", c(13, models.Spades), hand, true},
		{"inside with one card", InsideOutside, "inside", c(5, models.Spades), hand[:1], false},
		{"suit exact", SuitGuess, "spades", c(5, models.Spades), nil, true},
		{"suit wrong", SuitGuess, "hearts", c(5, models.Spades), nil, false},
		{"have suit yes", HaveSuit, "yes", c(5, models.Clubs), hand, true},
		{"have suit no", HaveSuit, "no", c(5, models.Diamonds), hand, true},
		{"number ace", Number, "a", c(1, models.Diamonds), nil, true},
		{"number king", Number, "K", c(13, models.Diamonds), nil, true},
		{"number ten", Number, "10", c(10, models.Diamonds), nil, true},
		{"number wrong", Number, "q", c(11, models.Diamonds), nil, false},
		{"number garbage", Number, "joker", c(11, models.Diamonds), nil, false},
		{"number valete", Number, "v", c(11, models.Clubs), nil, true},
		{"number bubi", Number, "b", c(11, models.Clubs), nil, true},
		{"number dama", Number, "d", c(12, models.Clubs), nil, true},
		{"number rei", Number, "r", c(13, models.Clubs), nil, true},
		{"number ász", Number, "á", c(1, models.Clubs), nil, true},
		{"number rei wrong", Number, "r", c(12, models.Clubs), nil, false},
		{"have number yes", HaveNumber, "yes", c(9, models.Hearts), hand, true},
		{"have number no", HaveNumber, "yes", c(8, models.Hearts), hand, false},
		{"unknown type", Type("colour"), "red", c(8, models.Hearts), hand, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.qt, tt.answer, tt.drawn, tt.hand))
		})
	}
}

func TestHigherLowerTieIsNeverCorrect(t *testing.T) {
	for v := 1; v <= 13; v++ {
		hand := []*models.Card{c(v, models.Hearts)}
		drawn := c(v, models.Spades)
		assert.False(t, Validate(HigherLower, "higher", drawn, hand))
		assert.False(t, Validate(HigherLower, "lower", drawn, hand))
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Ímpar", "odd"},
		{"Páros", "even"},
		{"Maior", "higher"},
		{"Alacsonyabb", "lower"},
		{"Fora", "outside"},
		{"Kőr ♥", "hearts"},
		{"Espadas ♠", "spades"},
		{"Sim", "yes"},
		{"Nem", "no"},
		{"V", "j"},
		{"D", "q"},
		{"R", "k"},
		{"Á", "a"},
		{"B", "j"},
		{"10", "10"},
		{" HIGHER ", "higher"},
		{"odd", "odd"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), tc.in)
	}
}
