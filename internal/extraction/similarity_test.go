package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Similarity", func() {
	DescribeTable("identical strings score 1",
		func(s string) {
			Expect(Similarity(s, s)).To(Equal(1.0))
		},
		Entry("keyword", "dinheiro"),
		Entry("single rune", "a"),
		Entry("accented", "série"),
	)

	DescribeTable("known ratios",
		func(a, b string, want float64) {
			Expect(Similarity(a, b)).To(BeNumerically("~", want, 1e-9))
		},
		Entry("one dropped letter", "dinheiro", "dinhero", 14.0/15.0),
		Entry("truncated", "extra", "extrato", 10.0/12.0),
		Entry("disjoint", "abc", "xyz", 0.0),
		Entry("case is ignored", "DINHEIRO", "dinheiro", 1.0),
		Entry("unrelated word", "pago", "dinheiro", 2.0/12.0),
	)

	DescribeTable("is symmetric",
		func(a, b string) {
			Expect(Similarity(a, b)).To(Equal(Similarity(b, a)))
		},
		Entry("close words", "dinheiro", "dinhero"),
		Entry("order sensitive pair", "consumidor", "dinheiro"),
		Entry("different lengths", "din", "dinheiro"),
		Entry("empty side", "", "dinheiro"),
	)

	It("scores an empty string against a non-empty one as 0", func() {
		Expect(Similarity("", "dinheiro")).To(Equal(0.0))
	})

	Describe("Matches", func() {
		It("should accept a token above the threshold", func() {
			Expect(Matches([]string{"pago", "dinheir"}, "dinheiro")).To(BeTrue())
		})

		It("should reject tokens at or below the threshold", func() {
			Expect(Matches([]string{"din", "pix"}, "dinheiro")).To(BeFalse())
		})

		It("should reject an empty token list", func() {
			Expect(Matches(nil, "dinheiro")).To(BeFalse())
		})
	})
})
