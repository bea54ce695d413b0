// Package model holds the records persisted in the partitioned tables.
//
// Every record is addressed by a partition key and a row key. Field names in
// the bun and dynamodbav tags are shared so the same column name can be used
// for partial merges on every backend.
package model
