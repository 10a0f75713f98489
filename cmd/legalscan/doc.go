// Command legalscan mirrors a staging repository of Java archives, unpacks
// them, and reports which license and notice texts each archive declares at
// its top level and which it only ships inside nested jars.
//
// Subcommands:
//
//	run      mirror, unpack, classify, and export the catalog
//	crawl    list the archives the staging repository offers
//	scan     classify an existing mirror without contacting staging
//	config   create or validate the configuration file
package main
