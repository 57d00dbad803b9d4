// shapeyaml loads, checks and inspects YAML documents with the safe engine.
//
// Usage:
//
//	# Load and re-dump normalized YAML
//	shapeyaml load config.yaml
//
//	# Allow application tags such as !include and !go/struct
//	shapeyaml load --unsafe config.yaml
//
//	# Report each document of a stream as ok, syntax or security failure
//	shapeyaml check stream.yaml
//
//	# Print the scanner tokens of a file
//	shapeyaml tokens config.yaml
package main

func main() {
	Execute()
}
