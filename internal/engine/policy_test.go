package engine

import (
	"testing"

	"neontrade-go/internal/config"
	"neontrade-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCoinFlipPolicy_Extremes(t *testing.T) {
	trade := &models.ActiveTrade{Direction: models.DirectionBuy}

	alwaysWin := NewCoinFlipPolicy(1.0, 42)
	alwaysLose := NewCoinFlipPolicy(0.0, 42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, models.OutcomeWin, alwaysWin.Outcome(trade, decimal.Zero))
		assert.Equal(t, models.OutcomeLoss, alwaysLose.Outcome(trade, decimal.Zero))
	}
}

func TestCoinFlipPolicy_IgnoresDirectionAndPrice(t *testing.T) {
	// Two policies with the same seed produce the same flip sequence
	// regardless of trade direction or price.
	a := NewCoinFlipPolicy(0.5, 7)
	b := NewCoinFlipPolicy(0.5, 7)

	buy := &models.ActiveTrade{Direction: models.DirectionBuy, OpenPrice: decimal.NewFromInt(100)}
	sell := &models.ActiveTrade{Direction: models.DirectionSell, OpenPrice: decimal.NewFromInt(900)}

	var wins, losses int
	for i := 0; i < 100; i++ {
		outA := a.Outcome(buy, decimal.NewFromInt(1))
		outB := b.Outcome(sell, decimal.NewFromInt(9999))
		assert.Equal(t, outA, outB)
		if outA == models.OutcomeWin {
			wins++
		} else {
			losses++
		}
	}
	// A fair flip over 100 trades produces both outcomes.
	assert.Positive(t, wins)
	assert.Positive(t, losses)
}

func TestPriceDeltaPolicy(t *testing.T) {
	policy := PriceDeltaPolicy{}
	open := decimal.NewFromInt(100)

	cases := []struct {
		name      string
		direction models.TradeDirection
		close     decimal.Decimal
		want      models.TradeOutcome
	}{
		{"BuyPriceRose", models.DirectionBuy, decimal.NewFromInt(101), models.OutcomeWin},
		{"BuyPriceFell", models.DirectionBuy, decimal.NewFromInt(99), models.OutcomeLoss},
		{"SellPriceFell", models.DirectionSell, decimal.NewFromInt(99), models.OutcomeWin},
		{"SellPriceRose", models.DirectionSell, decimal.NewFromInt(101), models.OutcomeLoss},
		{"BuyUnchanged", models.DirectionBuy, decimal.NewFromInt(100), models.OutcomeLoss},
		{"SellUnchanged", models.DirectionSell, decimal.NewFromInt(100), models.OutcomeLoss},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trade := &models.ActiveTrade{Direction: tc.direction, OpenPrice: open}
			assert.Equal(t, tc.want, policy.Outcome(trade, tc.close))
		})
	}
}

func TestPolicyFromConfig(t *testing.T) {
	coinflip, err := PolicyFromConfig(&config.Trading{OutcomePolicy: "coinflip", WinProbability: 0.5}, 1)
	assert.NoError(t, err)
	assert.Equal(t, "coinflip", coinflip.Name())

	// Empty selects the default policy
	def, err := PolicyFromConfig(&config.Trading{WinProbability: 0.5}, 1)
	assert.NoError(t, err)
	assert.Equal(t, "coinflip", def.Name())

	delta, err := PolicyFromConfig(&config.Trading{OutcomePolicy: "pricedelta"}, 1)
	assert.NoError(t, err)
	assert.Equal(t, "pricedelta", delta.Name())

	_, err = PolicyFromConfig(&config.Trading{OutcomePolicy: "oracle"}, 1)
	assert.Error(t, err)
}
