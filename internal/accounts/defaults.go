package accounts

import (
	"github.com/shopspring/decimal"

	"github.com/kassabok/kassabok/internal/model"
)

// DefaultChart returns the starter BAS chart for a company form.
func DefaultChart(companyForm string) []model.Account {
	switch companyForm {
	case "aktiebolag":
		return aktiebolagChart()
	default:
		return aktiebolagChart()
	}
}

func aktiebolagChart() []model.Account {
	return []model.Account{
		{Number: "1220", Name: "Inventarier och verktyg"},
		{Number: "1229", Name: "Ackumulerade avskrivningar på inventarier och verktyg"},
		{Number: "1460", Name: "Lager av handelsvaror"},
		{Number: "1510", Name: "Kundfordringar"},
		{Number: "1910", Name: "Kassa"},
		{Number: "1930", Name: "Företagskonto"},
		{Number: "2081", Name: "Aktiekapital"},
		{Number: "2091", Name: "Balanserad vinst eller förlust"},
		{Number: "2099", Name: "Årets resultat"},
		{Number: "2350", Name: "Andra långfristiga skulder till kreditinstitut"},
		{Number: "2440", Name: "Leverantörsskulder"},
		{Number: "2510", Name: "Skatteskulder"},
		{Number: "2610", Name: "Utgående moms, 25 %", VATRate: rate("0.25")},
		{Number: "2620", Name: "Utgående moms, 12 %", VATRate: rate("0.12")},
		{Number: "2640", Name: "Ingående moms"},
		{Number: "2650", Name: "Redovisningskonto för moms"},
		{Number: "2710", Name: "Personalskatt"},
		{Number: "2731", Name: "Avräkning lagstadgade sociala avgifter"},
		{Number: "3001", Name: "Försäljning inom Sverige, 25 % moms", VATRate: rate("0.25")},
		{Number: "3002", Name: "Försäljning inom Sverige, 12 % moms", VATRate: rate("0.12")},
		{Number: "3740", Name: "Öres- och kronutjämning"},
		{Number: "4010", Name: "Inköp material och varor"},
		{Number: "5010", Name: "Lokalhyra"},
		{Number: "5410", Name: "Förbrukningsinventarier"},
		{Number: "6110", Name: "Kontorsmateriel"},
		{Number: "6212", Name: "Mobiltelefon"},
		{Number: "6570", Name: "Bankkostnader"},
		{Number: "7210", Name: "Löner till tjänstemän"},
		{Number: "7510", Name: "Arbetsgivaravgifter"},
		{Number: "7832", Name: "Avskrivningar på inventarier och verktyg"},
		{Number: "8310", Name: "Ränteintäkter från omsättningstillgångar"},
		{Number: "8410", Name: "Räntekostnader för långfristiga skulder"},
		{Number: "8811", Name: "Avsättning till periodiseringsfond"},
		{Number: "8910", Name: "Skatt som belastar årets resultat"},
	}
}

func rate(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
