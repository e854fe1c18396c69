package extraction

import (
	"unicode"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tokenize", func() {
	var (
		text   string
		tokens []string
	)

	JustBeforeEach(func() {
		tokens = Tokenize(text, PortugueseStopwords)
	})

	When("the label has stopwords", func() {
		BeforeEach(func() {
			text = "Pago em Dinheiro"
		})

		It("should drop them and lowercase the rest", func() {
			Expect(tokens).To(Equal([]string{"pago", "dinheiro"}))
		})
	})

	When("words carry punctuation", func() {
		BeforeEach(func() {
			text = "CNPJ: Série, (SAT)"
		})

		It("should split the punctuation off", func() {
			Expect(tokens).To(Equal([]string{"cnpj", "série", "sat"}))
		})
	})

	When("a word has inner punctuation", func() {
		BeforeEach(func() {
			text = "CNPJ 11.222.333/0001-81 R$ 50,00"
		})

		It("should drop the word", func() {
			Expect(tokens).To(Equal([]string{"cnpj", "r"}))
		})
	})

	DescribeTable("breaks words at inner separators",
		func(in string, want []string) {
			Expect(Tokenize(in, PortugueseStopwords)).To(Equal(want))
		},
		Entry("colon between words", "Pagamento:Dinheiro", []string{"pagamento", "dinheiro"}),
		Entry("comma between words", "Cartão,Dinheiro", []string{"cartão", "dinheiro"}),
		Entry("currency symbol before digits", "R$50", []string{"r", "50"}),
		Entry("decimal comma", "50,00", []string{}),
		Entry("clock time", "10:22", []string{}),
		Entry("colon before a tax id", "CNPJ:11.222.333/0001-81", []string{}),
		Entry("trailing colon", "Forma:", []string{"forma"}),
	)

	When("the text repeats a word", func() {
		BeforeEach(func() {
			text = "total Total TOTAL"
		})

		It("should keep duplicates in order", func() {
			Expect(tokens).To(Equal([]string{"total", "total", "total"}))
		})
	})

	When("an accent is written as a combining mark", func() {
		BeforeEach(func() {
			text = "Se\u0301rie"
		})

		It("should compose it", func() {
			Expect(tokens).To(Equal([]string{"série"}))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("should return an empty slice", func() {
			Expect(tokens).NotTo(BeNil())
			Expect(tokens).To(BeEmpty())
		})
	})

	When("the text has only stopwords and symbols", func() {
		BeforeEach(func() {
			text = "de da do -- $ %"
		})

		It("should return nothing", func() {
			Expect(tokens).To(BeEmpty())
		})
	})

	It("never returns stopwords or punctuation", func() {
		inputs := []string{
			"Valor total a pagar R$",
			"Nº do extrato: 12345",
			"Forma de pagamento: Dinheiro/PIX",
			"CPF/CNPJ do consumidor",
			"Data de emissão 01/02/2024 às 10:22",
		}
		for _, in := range inputs {
			for _, tok := range Tokenize(in, PortugueseStopwords) {
				Expect(PortugueseStopwords.Contains(tok)).To(BeFalse(), "stopword %q from %q", tok, in)
				for _, r := range tok {
					Expect(unicode.IsLetter(r) || unicode.IsDigit(r)).To(BeTrue(), "token %q from %q", tok, in)
				}
			}
		}
	})
})

var _ = Describe("Stopwords", func() {
	It("should lowercase words on construction", func() {
		s := NewStopwords("DE", "Para")
		Expect(s.Contains("de")).To(BeTrue())
		Expect(s.Contains("para")).To(BeTrue())
		Expect(s.Contains("DE")).To(BeFalse())
	})

	It("should include common Portuguese function words", func() {
		for _, w := range []string{"em", "de", "do", "da", "a", "o", "não"} {
			Expect(PortugueseStopwords.Contains(w)).To(BeTrue(), w)
		}
	})
})
