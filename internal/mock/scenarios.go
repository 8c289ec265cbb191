package mock

import (
	"fmt"
	"math/rand"

	"github.com/smartstocks/pvp-tui/internal/client"
)

type scenarioDef struct {
	ticker      string
	asset       string
	news        string
	correct     client.Decision
	trend       float64 // drift per step applied to the visible series
	explanation string
}

var scenarioCatalog = []scenarioDef{
	{
		ticker: "AAPL", asset: "Apple Inc.",
		news:        "Apple beats quarterly earnings expectations and raises guidance on strong services revenue.",
		correct:     client.DecisionBuy,
		trend:       0.8,
		explanation: "An **earnings beat with raised guidance** usually pushes the price higher in the following sessions.",
	},
	{
		ticker: "TSLA", asset: "Tesla Inc.",
		news:        "Regulators open an investigation into a safety system after a series of recalls.",
		correct:     client.DecisionSell,
		trend:       -0.6,
		explanation: "**Regulatory risk** weighs on sentiment; the stock kept sliding after the announcement.",
	},
	{
		ticker: "KO", asset: "Coca-Cola Co.",
		news:        "Coca-Cola reports results in line with estimates and keeps its dividend unchanged.",
		correct:     client.DecisionHold,
		trend:       0.05,
		explanation: "Results **in line with expectations** rarely move a defensive stock; holding was the right call.",
	},
	{
		ticker: "BTC", asset: "Bitcoin",
		news:        "A major exchange halts withdrawals citing liquidity issues.",
		correct:     client.DecisionSell,
		trend:       -1.2,
		explanation: "**Liquidity scares** at large exchanges trigger sell-offs across the crypto market.",
	},
	{
		ticker: "NVDA", asset: "NVIDIA Corp.",
		news:        "NVIDIA announces a new data-center chip with pre-orders already exceeding supply.",
		correct:     client.DecisionBuy,
		trend:       1.1,
		explanation: "**Demand exceeding supply** for a flagship product points to revenue growth; the price rallied.",
	},
	{
		ticker: "XOM", asset: "Exxon Mobil",
		news:        "Oil prices are flat as producers agree to keep output unchanged.",
		correct:     client.DecisionHold,
		trend:       0.0,
		explanation: "With **no change in supply**, energy names traded sideways.",
	},
}

// newScenario builds a round scenario from a catalog entry with a random walk
// price series that follows the entry's trend.
func newScenario(rng *rand.Rand, def scenarioDef, id string) client.Scenario {
	const points = 20
	labels := make([]string, points)
	prices := make([]float64, points)
	price := 50 + rng.Float64()*150
	for i := range prices {
		labels[i] = fmt.Sprintf("D%d", i+1)
		prices[i] = float64(int(price*100)) / 100
		price += def.trend + (rng.Float64()-0.5)*2
		if price < 1 {
			price = 1
		}
	}
	return client.Scenario{
		ScenarioID:  id,
		Difficulty:  "medium",
		NewsContent: def.news,
		ChartData: client.ChartData{
			Labels:    labels,
			Prices:    prices,
			Ticker:    def.ticker,
			AssetName: def.asset,
		},
	}
}
