// Package main provides the entry point for the waybacktweets CLI.
//
// waybacktweets lists the archived captures of an account's tweets from the
// Wayback Machine CDX index and renders them as a standalone HTML report.
//
// Usage:
//
//	waybacktweets fetch <username>...
//	waybacktweets render <username> [--input records.json]
//	waybacktweets browse [username]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
