package report

// Labels are the metric captions as rendered by the report, one list per metric.
// Summary cards match exactly; table rows match by substring.
type Labels struct {
	TotalPnL         []string `yaml:"total_pnl" json:"total_pnl"`
	MaxDrawdown      []string `yaml:"max_drawdown" json:"max_drawdown"`
	TotalTrades      []string `yaml:"total_trades" json:"total_trades"`
	ProfitableTrades []string `yaml:"profitable_trades" json:"profitable_trades"`
	ProfitFactor     []string `yaml:"profit_factor" json:"profit_factor"`
	SharpeRatio      []string `yaml:"sharpe_ratio" json:"sharpe_ratio"`
}

// DefaultLabels covers the Chinese and English site locales
func DefaultLabels() Labels {
	return Labels{
		TotalPnL:         []string{"总盈亏", "Total P&L", "Net Profit"},
		MaxDrawdown:      []string{"最大股权回撤", "Max equity drawdown", "Max Drawdown"},
		TotalTrades:      []string{"总交易", "Total trades", "Total Closed Trades"},
		ProfitableTrades: []string{"盈利交易", "Profitable trades", "Percent Profitable"},
		ProfitFactor:     []string{"盈利因子", "Profit factor", "Profit Factor"},
		SharpeRatio:      []string{"夏普比率", "Sharpe ratio", "Sharpe Ratio"},
	}
}
