package cfg

type Cfg struct {
	// Channel configuration
	ChannelURL  string
	ChannelID   string
	ChannelFile string
	Cookie      string

	// Application configuration
	DBPath          string
	Port            string
	APIAccessKey    string
	PollInterval    int
	RefreshInterval int
	PageDelayMs     int
	MaxPages        int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
