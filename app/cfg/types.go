package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// HTTP server configuration
	Port    string
	BaseUrl string

	// Crawler configuration
	CrawlerType     string
	WorkerCount     int
	CrawlerInterval int
	FeedErrorMax    int
	ErrorThreshold  int
	AdminOnlyFetch  bool

	// Content parsing configuration
	ReadabilityEndpoint string
	ReadabilityKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
