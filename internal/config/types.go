package config

// Output formats understood by the renderers.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidFormats lists the accepted output.format values.
var ValidFormats = map[string]bool{
	FormatTable: true,
	FormatJSON:  true,
	FormatYAML:  true,
}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}
