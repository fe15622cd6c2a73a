package identity

// Similarity scores two titles in [0, 1] using the Sørensen–Dice coefficient
// over character bigrams of their normalized forms. Bigrams tolerate word
// reordering and small spelling drift better than exact token matches on
// short strings like titles.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	bigramsA := bigrams(na)
	bigramsB := bigrams(nb)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	counts := make(map[string]int, len(bigramsA))
	for _, gram := range bigramsA {
		counts[gram]++
	}
	overlap := 0
	for _, gram := range bigramsB {
		if counts[gram] > 0 {
			counts[gram]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(bigramsA)+len(bigramsB))
}

func bigrams(value string) []string {
	runes := []rune(value)
	if len(runes) < 2 {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		grams = append(grams, string(runes[i:i+2]))
	}
	return grams
}
