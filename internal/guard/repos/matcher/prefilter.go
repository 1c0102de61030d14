package matcher

// maxGram bounds the n-gram length inserted into the prefilter.
const maxGram = 4

// ngramIndex answers "could any pattern occur in this candidate?" with no
// false negatives. With g = min(maxGram, shortest pattern), the first g bytes
// of every pattern are inserted. If pattern p occurs in c at offset i, then
// c[i:i+g] == p[:g] was inserted, so at least one window probes positive.
type ngramIndex struct {
	g  int
	bf BloomFilter
}

// newNGramIndex returns nil when there is nothing to index or no factory;
// a nil index never filters.
func newNGramIndex(f BloomFactory, patterns []string, fpRate float64) *ngramIndex {
	if f == nil || len(patterns) == 0 {
		return nil
	}
	g := maxGram
	for _, p := range patterns {
		if len(p) < g {
			g = len(p)
		}
	}
	bf := f.New(uint64(len(patterns)), fpRate)
	for _, p := range patterns {
		bf.Add([]byte(p[:g]))
	}
	return &ngramIndex{g: g, bf: bf}
}

// mayMatch reports false only when no pattern can be a substring of c.
func (x *ngramIndex) mayMatch(c string) bool {
	if x == nil {
		return true
	}
	if len(c) < x.g {
		return false
	}
	b := []byte(c)
	for i := 0; i+x.g <= len(b); i++ {
		if x.bf.MightContain(b[i : i+x.g]) {
			return true
		}
	}
	return false
}
