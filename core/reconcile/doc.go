// Package reconcile provides the in-memory reconciliation engine that matches a
// bulk report of expected items against a stream of barcode scans.
//
// The engine tracks, for every item of the report, whether it has been accounted
// for, which scans were repeats, and which scans did not match anything.
//
// # Architecture
//
// The package consists of the following components:
//
// 1. Item: one expected unit of the report. Each item owns its lifecycle state
//    (PENDING -> SCANNED -> DUPLICATE). The UNREPORTED state is reserved for the
//    transient items produced by scans that match nothing.
//
// 2. Registry: the set of items keyed by their normalized code. Codes are unique;
//    registering a code twice fails with ErrDuplicateKey.
//
// 3. Normalizer: turns raw scanner input into the canonical lookup code by keeping
//    digits only and right-aligning on the configured code length.
//
// 4. Session: the aggregate root. It owns the registry, the append-only scan log
//    and the derived statistics. ProcessScan is its only mutator once items are
//    loaded, and statistics are recomputed before it returns.
//
// 5. Snapshot codec: saves a session to a JSON file and restores it, either in the
//    full-fidelity format or in the compact state-overlay format.
//
// # Concurrency
//
// A Session guards its state with a single RWMutex. Mutations take the write lock
// for their whole duration, readers take the read lock and receive copies, so an
// observer never sees item state and statistics out of step.
//
// # Usage Example
//
//	sess := reconcile.NewSession(reconcile.WithCodeLength(13))
//	if err := sess.AddItems(items...); err != nil {
//	    return err
//	}
//
//	result := sess.ProcessScan("]C10000000000001")
//	fmt.Println(result.Kind, sess.Statistics().Pending)
//
//	// Persist and resume later
//	err := sess.SaveSnapshot("progress.json", reconcile.FormatFull)
//	resumed, format, err := reconcile.RestoreSnapshot("progress.json", nil)
package reconcile
