package constants

// FilenameField is stamped on every exported record.
const FilenameField = "filename"

// ExcludedEntityFields are stripped from every entity before export.
var ExcludedEntityFields = []string{
	"pageAnchor",
	"textAnchor",
	"normalizedValue",
	"properties",
}
