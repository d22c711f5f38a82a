package questions

import "strings"

// localizedLabels maps every option label the clients display (en, pt-BR, hu)
// to its canonical token.
var localizedLabels = map[string]string{
	"Odd": "odd", "Even": "even",
	"Ímpar": "odd", "Par": "even",
	"Páratlan": "odd", "Páros": "even",

	"Higher": "higher", "Lower": "lower",
	"Maior": "higher", "Menor": "lower",
	"Magasabb": "higher", "Alacsonyabb": "lower",

	"Inside": "inside", "Outside": "outside",
	"Dentro": "inside", "Fora": "outside",
	"Belül": "inside", "Kívül": "outside",

	"Hearts ♥": "hearts", "Diamonds ♦": "diamonds", "Clubs ♣": "clubs", "Spades ♠": "spades",
	"Copas ♥": "hearts", "Ouros ♦": "diamonds", "Paus ♣": "clubs", "Espadas ♠": "spades",
	"Kőr ♥": "hearts", "Káró ♦": "diamonds", "Treff ♣": "clubs", "Pikk ♠": "spades",

	"Yes": "yes", "No": "no",
	"Sim": "yes", "Não": "no",
	"Igen": "yes", "Nem": "no",

	"A": "a", "J": "j", "Q": "q", "K": "k",
	"V": "j", "D": "q", "R": "k", // pt-BR valete, dama, rei
	"Á": "a", "B": "j", // hu ász, bubi
}

// Normalize turns a displayed option label into the canonical token Validate
// expects. Unknown input is trimmed and lower-cased so canonical tokens pass
// through unchanged.
func Normalize(label string) string {
	label = strings.TrimSpace(label)
	if tok, ok := localizedLabels[label]; ok {
		return tok
	}
	return strings.ToLower(label)
}
