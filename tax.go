package main

import (
	"github.com/shopspring/decimal"
)

type IncomeTaxRequest struct {
	Income decimal.Decimal `json:"income"`
}

type IncomeTaxResult struct {
	Income          decimal.Decimal `json:"income"`
	FederalTax      decimal.Decimal `json:"federal_tax"`
	ProvincialTax   decimal.Decimal `json:"provincial_tax"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	AfterTaxIncome  decimal.Decimal `json:"after_tax_income"`
	MarginalRate    decimal.Decimal `json:"marginal_rate"` // federal + provincial, approximate
	AverageRate     decimal.Decimal `json:"average_rate"`
	FederalBrackets []BracketFill   `json:"federal_brackets"`
}

// CalculateIncomeTax applies both schedules to the same income.
func CalculateIncomeTax(req IncomeTaxRequest, tables TaxTables) (IncomeTaxResult, error) {
	if err := requireNonNegative("income", req.Income); err != nil {
		return IncomeTaxResult{}, err
	}
	fed := ComputeTax(req.Income, tables.Federal)
	prov := ComputeTax(req.Income, tables.Provincial)
	total := fed.Add(prov)
	return IncomeTaxResult{
		Income:          cents(req.Income),
		FederalTax:      cents(fed),
		ProvincialTax:   cents(prov),
		TotalTax:        cents(total),
		AfterTaxIncome:  cents(req.Income.Sub(total)),
		MarginalRate:    CombinedMarginalRate(req.Income, tables.Federal, tables.Provincial),
		AverageRate:     AverageRate(total, req.Income).Round(6),
		FederalBrackets: BracketBreakdown(req.Income, tables.Federal),
	}, nil
}

type RRSPRequest struct {
	AnnualIncome     decimal.Decimal `json:"annual_income"`
	RRSPContribution decimal.Decimal `json:"rrsp_contribution"`
	OtherDeductions  decimal.Decimal `json:"other_deductions"`
}

type RRSPResult struct {
	TaxableIncomeBeforeRRSP decimal.Decimal `json:"taxable_income_before_rrsp"`
	TaxableIncomeAfterRRSP  decimal.Decimal `json:"taxable_income_after_rrsp"`
	DeductedContribution    decimal.Decimal `json:"deducted_contribution"`
	FederalTaxBefore        decimal.Decimal `json:"federal_tax_before"`
	FederalTaxAfter         decimal.Decimal `json:"federal_tax_after"`
	ProvincialTaxBefore     decimal.Decimal `json:"provincial_tax_before"`
	ProvincialTaxAfter      decimal.Decimal `json:"provincial_tax_after"`
	FederalSavings          decimal.Decimal `json:"federal_savings"`
	ProvincialSavings       decimal.Decimal `json:"provincial_savings"`
	TotalTaxSavings         decimal.Decimal `json:"total_tax_savings"`
	MarginalRate            decimal.Decimal `json:"marginal_rate"`
	AverageRateBefore       decimal.Decimal `json:"average_rate_before"`
	AverageRateAfter        decimal.Decimal `json:"average_rate_after"`
	// EffectiveSavingsRate is savings per dollar contributed; 0 without a contribution.
	EffectiveSavingsRate decimal.Decimal `json:"effective_savings_rate"`
}

func (r RRSPRequest) validate() error {
	if err := requireNonNegative("annual_income", r.AnnualIncome); err != nil {
		return err
	}
	if err := requireNonNegative("rrsp_contribution", r.RRSPContribution); err != nil {
		return err
	}
	return requireNonNegative("other_deductions", r.OtherDeductions)
}

// CalculateRRSPSavings compares combined tax with and without the RRSP deduction. A
// deduction never takes taxable income below zero.
func CalculateRRSPSavings(req RRSPRequest, tables TaxTables) (RRSPResult, error) {
	if err := req.validate(); err != nil {
		return RRSPResult{}, err
	}
	before := decimal.Max(req.AnnualIncome.Sub(req.OtherDeductions), zero)
	deducted := decimal.Min(req.RRSPContribution, before)
	after := before.Sub(deducted)

	fedBefore := ComputeTax(before, tables.Federal)
	fedAfter := ComputeTax(after, tables.Federal)
	provBefore := ComputeTax(before, tables.Provincial)
	provAfter := ComputeTax(after, tables.Provincial)
	totalBefore := fedBefore.Add(provBefore)
	totalAfter := fedAfter.Add(provAfter)
	savings := totalBefore.Sub(totalAfter)

	return RRSPResult{
		TaxableIncomeBeforeRRSP: cents(before),
		TaxableIncomeAfterRRSP:  cents(after),
		DeductedContribution:    cents(deducted),
		FederalTaxBefore:        cents(fedBefore),
		FederalTaxAfter:         cents(fedAfter),
		ProvincialTaxBefore:     cents(provBefore),
		ProvincialTaxAfter:      cents(provAfter),
		FederalSavings:          cents(fedBefore.Sub(fedAfter)),
		ProvincialSavings:       cents(provBefore.Sub(provAfter)),
		TotalTaxSavings:         cents(savings),
		MarginalRate:            CombinedMarginalRate(before, tables.Federal, tables.Provincial),
		AverageRateBefore:       AverageRate(totalBefore, before).Round(6),
		AverageRateAfter:        AverageRate(totalAfter, after).Round(6),
		EffectiveSavingsRate:    safeDiv(savings, req.RRSPContribution).Round(6),
	}, nil
}
