package neoql

// Driver names.
const (
	DriverNeo4j = "neo4j"
)

// Connection defaults.
const (
	DefaultScheme = "bolt"
	DefaultHost   = "localhost"
	DefaultPort   = 7687
)

// DateFormat is the layout used when time values are bound as parameters.
const DateFormat = "2006-01-02 15:04:05"
