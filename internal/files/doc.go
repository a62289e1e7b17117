// Package files catalogs report artifacts on disk.
//
// A Catalog is rooted at a base directory; relative directories resolve
// against it and absolute ones are used as given. Listing a directory that
// does not exist yields no files rather than an error, so a run that was
// never exported simply has an empty catalog.
//
//	catalog := files.NewCatalog(paths.ReportsDir)
//	reports, err := catalog.List(runID)
//	count, size, err := catalog.Usage("")
package files
