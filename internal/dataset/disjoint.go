package dataset

import "fmt"

// CheckDisjoint verifies that no identifier appears in more than one of the
// given datasets. Duplicates inside a single dataset are not reported.
func CheckDisjoint(datasets ...*Dataset) error {
	owner := map[string]Split{}
	for _, dataset := range datasets {
		if dataset == nil {
			continue
		}
		for _, record := range dataset.records {
			previous, seen := owner[record.ID()]
			if seen && previous != dataset.split {
				return fmt.Errorf("%w: %q in %s and %s", ErrSplitLeak, record.ID(), previous, dataset.split)
			}
			owner[record.ID()] = dataset.split
		}
	}
	return nil
}
