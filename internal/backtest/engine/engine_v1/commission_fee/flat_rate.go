package commission_fee

// FlatRateCommissionFee charges a fixed fraction of the capital committed at entry.
type FlatRateCommissionFee struct {
	Rate float64
}

func NewFlatRateCommissionFee(rate float64) CommissionFee {
	return &FlatRateCommissionFee{
		Rate: rate,
	}
}

func (c *FlatRateCommissionFee) Calculate(capitalAtEntry float64) float64 {
	if capitalAtEntry <= 0 {
		return 0
	}

	return capitalAtEntry * c.Rate
}
