// Package lifecycle holds the pieces every entity management service shares:
// key based reads and deletes, list options and the two list strategies.
//
// OffsetPager suits small, bounded partitions. It reads the whole partition
// through the cache and pages it in memory by creation time. StorePager suits
// large or filtered partitions. It hands the query to the store and passes
// the store's continuation markers through without reading them.
package lifecycle
