package inspect

import "procmon/internal/snapshot"

// Group collapses thread records into one process per thread group. The
// record whose TID equals its TGID represents the group because only the
// main thread carries a reliable parent link; when the main thread is
// missing from records, the first member seen stands in. Thread counts
// come from counter, not from the number of records, since records may be
// a filtered subset. Output order is unspecified.
func Group(records []ThreadRecord, counter ThreadCounter) []snapshot.Process {
	reps := make(map[int32]ThreadRecord, len(records))
	order := make([]int32, 0, len(records))
	for _, rec := range records {
		cur, seen := reps[rec.TGID]
		switch {
		case !seen:
			reps[rec.TGID] = rec
			order = append(order, rec.TGID)
		case rec.TID == rec.TGID && cur.TID != cur.TGID:
			reps[rec.TGID] = rec
		}
	}

	out := make([]snapshot.Process, 0, len(order))
	for _, tgid := range order {
		rec := reps[tgid]
		threads := 1
		if counter != nil {
			if n := counter.ThreadCount(tgid); n > 0 {
				threads = n
			}
		}
		out = append(out, snapshot.Process{
			Snapshot: snapshot.Snapshot{
				PID:         tgid,
				Name:        rec.Name,
				CPUPercent:  rec.CPUPercent,
				MemoryBytes: rec.MemoryBytes,
				ThreadCount: threads,
				Status:      rec.Status,
			},
			ParentPID: rec.PPID,
			HasParent: rec.HasPPID,
		})
	}
	return out
}
