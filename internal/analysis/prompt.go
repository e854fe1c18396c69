package analysis

// analysisPrompt is the shared prompt used by the LLM analyzers. It asks for
// the same shape extraction.Decode reads, with Textract-style type tags.
const analysisPrompt = `You are analyzing a Brazilian receipt or invoice (cupom fiscal, nota fiscal, extrato SAT). Read every piece of text in the image.

Report each labeled value you can find as a field:
- "label": the printed label exactly as written (e.g. "CNPJ", "Total R$", "Pago em Dinheiro", "Série"), or "" when the value has no label
- "value": the printed value exactly as written, keeping punctuation (e.g. "11.222.333/0001-81", "R$ 50,00", "15/03/2024")
- "type_tag": one of VENDOR_NAME, ADDRESS_BLOCK, INVOICE_RECEIPT_DATE, INVOICE_RECEIPT_ID, TOTAL, AMOUNT_PAID, OTHER
- "confidence": how sure you are of the reading, from 0 to 100

Also copy every printed line, in reading order, as a text block.

Return ONLY valid JSON in this exact format:
{
  "documents": [
    {
      "fields": [
        {"label": "CNPJ", "value": "11.222.333/0001-81", "type_tag": "OTHER", "confidence": 95}
      ],
      "text_blocks": [
        {"text": "CNPJ: 11.222.333/0001-81"}
      ]
    }
  ]
}

Important:
- Never normalize, translate or reformat values
- Use OTHER when no other type fits
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
