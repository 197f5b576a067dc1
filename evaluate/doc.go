// Package evaluate implements the promotion gate.
//
// An evaluation runs a dataset's golden queries against its staging
// namespace and scans staged chunk text for structural damage. The result
// is persisted; promotion refuses to run unless the latest result passed.
package evaluate
