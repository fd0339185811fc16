// Package balance splits a roster into groups whose average scores track the
// roster average. A search repeatedly shuffles the roster, cuts it into
// near-equal groups and keeps the partition with the lowest spread of
// group-mean deviations.
//
// Components:
//   - Partition: random near-equal split of a roster
//   - Score: population standard deviation of (group mean - global mean)
//   - Search: single-threaded generate-and-test loop keeping the best result
//   - Searcher: configured runner fanning iterations out to workers
package balance
