// Package workload provides computations ready to run on a master.Master.
//
// Each workload owns the state shared by its task provider and its result
// consumer and exposes it as a master.Job:
//
//	sum := workload.NewSum(1000000, 4096)
//	if err := master.Run(ctx, 0, sum.Job()); err != nil {
//	    return err
//	}
//	fmt.Println(sum.Total())
//
// Tasks carry their position (a range, a band of rows) so the results can be
// combined in whatever order the workers finish them.
//
// A workload instance is good for one computation. The task provider and the
// result consumer are only called by the master, which serializes them; the
// accessors such as Total must not be called while the computation runs.
package workload
