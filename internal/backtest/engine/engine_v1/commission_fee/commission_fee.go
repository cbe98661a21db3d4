package commission_fee

// CommissionFee prices the cost of one round-trip trade.
type CommissionFee interface {
	// Calculate returns the fee in account currency for a trade that
	// committed capitalAtEntry.
	Calculate(capitalAtEntry float64) float64
}

type Broker string

const (
	BrokerFlatRate Broker = "flat_rate"
	BrokerZero     Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerFlatRate,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee model for broker. rate is only
// used by the flat rate broker. Unknown brokers are free.
func GetCommissionFeeHandler(broker Broker, rate float64) CommissionFee {
	switch broker {
	case BrokerFlatRate:
		return NewFlatRateCommissionFee(rate)
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
