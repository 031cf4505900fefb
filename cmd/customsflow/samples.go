package main

import (
	"fmt"

	"customsflow/internal/customs"
)

type sampleDeclaration struct {
	company   string
	goods     string
	hsCode    string
	amount    float64
	documents int
}

// sampleDeclarations mixes cargo that the demo rules clear with cargo they
// route to audit.
var sampleDeclarations = []sampleDeclaration{
	{company: "global tech imports ltd", goods: "Auto Parts", hsCode: "8708.99", amount: 74250, documents: 2},
	{company: "shenzhen precision co", goods: "Optical Instruments", hsCode: "9013.80", amount: 650000, documents: 1},
	{company: "ningbo textile group", goods: "Cotton Shirts", hsCode: "6205.20", amount: 80, documents: 1},
	{company: "harbor pharma trading", goods: "Vaccines", hsCode: "3002.41", amount: 200000, documents: 2},
	{company: "eastline logistics", goods: "Mixed Cargo", hsCode: "99XX", amount: 30000, documents: 2},
	{company: "pacific furniture works", goods: "Wooden Chairs", hsCode: "9401.61", amount: 42000, documents: 3},
}

func sampleInput(i int) customs.Input {
	s := sampleDeclarations[i%len(sampleDeclarations)]
	docs := make([]string, 0, s.documents)
	for d := range s.documents {
		docs = append(docs, fmt.Sprintf("doc-%03d-%d.pdf", i+1, d+1))
	}
	return customs.Input{
		CompanyName: s.company,
		GoodsType:   s.goods,
		HSCode:      s.hsCode,
		Amount:      s.amount,
		Currency:    "USD",
		Documents:   docs,
	}
}
