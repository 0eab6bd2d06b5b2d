package constants

// CLIName is the command name used in user-facing output
const CLIName = "yamlctx"

// FrontmatterDelimiter opens and closes the YAML block of a markdown file
const FrontmatterDelimiter = "---"
