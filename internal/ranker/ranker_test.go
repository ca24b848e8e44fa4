package ranker

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func texts(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Text)
	}
	return out
}

var _ = Describe("Rank", func() {
	It("should return nothing for the empty query", func() {
		Expect(Rank("", []string{"Firefox"}, nil)).To(BeEmpty())
	})

	It("should return nothing for an empty pool", func() {
		Expect(Rank("f", nil, nil)).To(BeEmpty())
	})

	It("should leave out candidates that do not contain the query", func() {
		Expect(texts(Rank("zz", []string{"Firefox", "Files"}, nil))).To(BeEmpty())
		Expect(texts(Rank("b", []string{"a.txt", "b.txt"}, nil))).To(Equal([]string{"b.txt"}))
	})

	It("should match case-insensitively", func() {
		Expect(texts(Rank("FIRE", []string{"firefox"}, nil))).To(Equal([]string{"firefox"}))
	})

	It("should prefer contiguous matches that start early", func() {
		pool := []string{"the rom", "xterm", "terminal"}
		Expect(texts(Rank("term", pool, nil))).To(Equal([]string{"terminal", "xterm", "the rom"}))
	})

	It("should keep arrival order for equal scores and weights", func() {
		Expect(texts(Rank("f", []string{"Firefox", "Files"}, nil))).To(Equal([]string{"Firefox", "Files"}))
		Expect(texts(Rank("f", []string{"Files", "Firefox"}, nil))).To(Equal([]string{"Files", "Firefox"}))
	})

	It("should break score ties by weight", func() {
		weights := []uint8{0, 1}
		matches := Rank("f", []string{"Firefox", "Files"}, func(i int) uint8 { return weights[i] })
		Expect(texts(matches)).To(Equal([]string{"Files", "Firefox"}))
		Expect(matches[0].Weight).To(Equal(uint8(1)))
		Expect(matches[0].Index).To(Equal(1))
	})

	It("should never let weight override a better score", func() {
		pool := []string{"the rom", "xterm", "terminal"}
		weights := []uint8{255, 10, 0}
		matches := Rank("term", pool, func(i int) uint8 { return weights[i] })
		Expect(texts(matches)).To(Equal([]string{"terminal", "xterm", "the rom"}))
	})

	It("should be deterministic", func() {
		pool := []string{"Files", "Firefox", "File Roller", "Foliate", "Font Viewer", "Fifo"}
		first := Rank("fi", pool, nil)
		for i := 0; i < 10; i++ {
			Expect(Rank("fi", pool, nil)).To(Equal(first))
		}
	})

	It("should report the matched positions", func() {
		matches := Rank("tr", []string{"terminal"}, nil)
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Matched).To(Equal([]int{0, 2}))
	})

	It("should score the tightest occurrence, not the first one", func() {
		Expect(texts(Rank("code", []string{"c_o_d_e", "cat vscode"}, nil))).
			To(Equal([]string{"cat vscode", "c_o_d_e"}))
		Expect(texts(Rank("ab", []string{"a__b", "a_xab"}, nil))).
			To(Equal([]string{"a_xab", "a__b"}))

		matches := Rank("code", []string{"cat vscode"}, nil)
		Expect(matches[0].Matched).To(Equal([]int{6, 7, 8, 9}))
	})

	It("should count a skipped multibyte character as one gap", func() {
		matches := Rank("ab", []string{"aéb", "a_b"}, nil)
		Expect(texts(matches)).To(Equal([]string{"aéb", "a_b"}))
		Expect(matches[0].Matched).To(Equal([]int{0, 2}))
		Expect(matches[0].Score).To(Equal(matches[1].Score))
	})
})

var _ = Describe("Window", func() {
	window := func(query, text string) []int {
		return Window([]rune(query), []rune(text))
	}

	It("should return nothing when the query is not a subsequence", func() {
		Expect(window("ba", "ab")).To(BeNil())
		Expect(window("", "ab")).To(BeNil())
	})

	It("should shrink the window from its end", func() {
		Expect(window("ab", "aab")).To(Equal([]int{1, 2}))
		Expect(window("abc", "abxabc")).To(Equal([]int{3, 4, 5}))
	})

	It("should keep the earliest of equally tight windows", func() {
		Expect(window("ab", "a_bxa_b")).To(Equal([]int{0, 2}))
	})
})

var _ = Describe("Score", func() {
	It("should give a contiguous match at the start the top score", func() {
		Expect(Score([]int{0, 1, 2})).To(Equal(0))
	})

	It("should not depend on the number of matched characters alone", func() {
		Expect(Score([]int{0})).To(Equal(Score([]int{0, 1, 2, 3})))
	})

	It("should prefer an earlier start", func() {
		Expect(Score([]int{0, 1})).To(BeNumerically(">", Score([]int{3, 4})))
	})

	It("should prefer fewer gaps over an earlier start", func() {
		Expect(Score([]int{40, 41})).To(BeNumerically(">", Score([]int{0, 2})))
	})

	It("should rank no match below everything", func() {
		Expect(Score(nil)).To(BeNumerically("<", Score([]int{0, 100000})))
	})
})

var _ = Describe("Compare", func() {
	It("should order by score, then weight, then index", func() {
		a := Match{Index: 0, Score: -1, Weight: 9}
		b := Match{Index: 1, Score: 0, Weight: 0}
		Expect(Compare(b, a)).To(BeNumerically("<", 0))

		c := Match{Index: 2, Score: 0, Weight: 3}
		Expect(Compare(c, b)).To(BeNumerically("<", 0))

		d := Match{Index: 3, Score: 0, Weight: 3}
		Expect(Compare(c, d)).To(BeNumerically("<", 0))
		Expect(Compare(c, c)).To(Equal(0))
	})
})
