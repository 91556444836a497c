package usecase

import (
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// CalculateCommission splits totalCents into platform fee and vendor payout.
// The fee is rounded up to the next cent, so fee + payout == total always holds.
func CalculateCommission(totalCents int64, ratePercent, minRate, maxRate decimal.Decimal) (entity.Commission, error) {
	if totalCents < 0 {
		return entity.Commission{}, fmt.Errorf("%w: negative total %d", ErrCommissionPrecondition, totalCents)
	}
	if ratePercent.LessThan(minRate) || ratePercent.GreaterThan(maxRate) {
		return entity.Commission{}, fmt.Errorf("%w: rate %s outside [%s, %s]",
			ErrCommissionPrecondition, ratePercent, minRate, maxRate)
	}

	fee := decimal.NewFromInt(totalCents).Mul(ratePercent).Div(hundred).Ceil().IntPart()
	return entity.Commission{
		PlatformFeeCents:  fee,
		VendorPayoutCents: totalCents - fee,
	}, nil
}

// ClampCommissionRate forces a configured rate into [minRate, maxRate].
// Only tenant configuration uses it; booking math never clamps.
func ClampCommissionRate(rate, minRate, maxRate decimal.Decimal) decimal.Decimal {
	if rate.LessThan(minRate) {
		return minRate
	}
	if rate.GreaterThan(maxRate) {
		return maxRate
	}
	return rate
}

type CommissionCalculator struct {
	minRate decimal.Decimal
	maxRate decimal.Decimal
	log     *zap.Logger
}

func NewCommissionCalculator(config utils.BookingConfig, log *zap.Logger) *CommissionCalculator {
	return &CommissionCalculator{
		minRate: config.MinCommissionRate,
		maxRate: config.MaxCommissionRate,
		log:     log.With(zap.String("service", "commission")),
	}
}

func (c *CommissionCalculator) Calculate(totalCents int64, ratePercent decimal.Decimal) (entity.Commission, error) {
	commission, err := CalculateCommission(totalCents, ratePercent, c.minRate, c.maxRate)
	if err != nil {
		c.log.Error("Commission precondition violated",
			zap.Error(err),
			zap.Int64("total_cents", totalCents),
			zap.String("rate", ratePercent.String()),
		)
		return entity.Commission{}, err
	}
	return commission, nil
}

func (c *CommissionCalculator) Clamp(rate decimal.Decimal) decimal.Decimal {
	return ClampCommissionRate(rate, c.minRate, c.maxRate)
}
