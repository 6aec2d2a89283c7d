package config

// Default returns the built-in configuration: the classic forex/futures
// session table and a set of financial news feeds. A config file overrides
// any of it; webhook URLs still come from the environment if unset.
func Default() *Config {
	return &Config{
		Timezone: "America/New_York",
		Logging: LoggingConfig{
			Level: "info",
		},
		Status: StatusConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8686",
		},
		Sessions: SessionsConfig{
			WarningMinutes: 30,
			Table: []SessionConfig{
				{
					Name:    "Sydney",
					Open:    "17:00",
					Close:   "02:00",
					Color:   "#00CED1",
					Emoji:   "🇦🇺",
					Weekend: true,
				},
				{
					Name:    "Tokyo",
					Open:    "19:00",
					Close:   "04:00",
					Color:   "#DC143C",
					Emoji:   "🇯🇵",
					Weekend: true,
				},
				{
					Name:  "London",
					Open:  "03:00",
					Close: "12:00",
					Color: "#1E90FF",
					Emoji: "🇬🇧",
				},
				{
					Name:  "New York",
					Open:  "09:30",
					Close: "16:00",
					Color: "#228B22",
					Emoji: "🇺🇸",
				},
				{
					// Opens Sunday evening, closes daily for maintenance.
					Name:       "CME Futures",
					Open:       "18:00",
					Close:      "17:00",
					Color:      "#FFD700",
					Emoji:      "📊",
					SundayOpen: true,
				},
			},
		},
		News: NewsConfig{
			PollInterval:  "5m",
			PruneInterval: "24h",
			Retention:     "168h",
			MaxPerFeed:    3,
			Store: StoreConfig{
				Driver: "file",
				Path:   ".finbeat_seen.json",
			},
			Feeds: []FeedConfig{
				{
					Name:  "CNBC Top News",
					URL:   "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=100003114",
					Color: "#005999",
					Icon:  "https://www.cnbc.com/favicon.ico",
				},
				{
					Name:  "CNBC Economy",
					URL:   "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=20910258",
					Color: "#005999",
					Icon:  "https://www.cnbc.com/favicon.ico",
				},
				{
					Name:  "MarketWatch Top",
					URL:   "https://feeds.content.dowjones.io/public/rss/mw_topstories",
					Color: "#00AC4E",
					Icon:  "https://www.marketwatch.com/favicon.ico",
				},
				{
					Name:  "ZeroHedge",
					URL:   "https://cms.zerohedge.com/fullrss2.xml",
					Color: "#FC6404",
					Icon:  "https://www.zerohedge.com/favicon.ico",
				},
				{
					Name:  "Investing.com News",
					URL:   "https://www.investing.com/rss/news.rss",
					Color: "#1A5276",
					Icon:  "https://www.investing.com/favicon.ico",
				},
				{
					Name:  "Federal Reserve",
					URL:   "https://www.federalreserve.gov/feeds/press_all.xml",
					Color: "#003366",
					Icon:  "https://www.federalreserve.gov/favicon.ico",
				},
			},
		},
	}
}
