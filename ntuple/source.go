package ntuple

// Source produces event rows.
type Source interface {
	// Columns lists the columns present in the row schema.
	Columns() []string
	// Scan calls fn once per row, in order, stopping at the first error.
	Scan(fn func(r *Row) error) error
}

// SliceSource serves rows from memory.
type SliceSource struct {
	Cols []string
	Rows []Row
}

func (s *SliceSource) Columns() []string {
	return s.Cols
}

func (s *SliceSource) Scan(fn func(r *Row) error) error {
	for i := range s.Rows {
		r := s.Rows[i]
		r.Entry = int64(i)
		if err := fn(&r); err != nil {
			return err
		}
	}
	return nil
}
