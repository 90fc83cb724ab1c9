// Package sample is the demo workload of mongosample: it writes a generated
// set of persons through the provider's insert client and reads the count
// back through its query client.
package sample
