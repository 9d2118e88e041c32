package auth

// CompareSize is how many listings can be compared side by side.
const CompareSize = 2

const compareKey = "compare_list"

// CompareList is a bounded FIFO of listing IDs. Pushing onto a full list
// evicts the oldest entry.
type CompareList struct {
	IDs []int64 `json:"ids"`
}

// Push appends id, evicting the oldest entry when full. Duplicates are
// ignored; it reports whether the list changed.
func (c *CompareList) Push(id int64) bool {
	if c.Contains(id) {
		return false
	}
	c.IDs = append(c.IDs, id)
	if len(c.IDs) > CompareSize {
		c.IDs = append([]int64(nil), c.IDs[len(c.IDs)-CompareSize:]...)
	}
	return true
}

// Remove drops id and reports whether it was present.
func (c *CompareList) Remove(id int64) bool {
	for i, v := range c.IDs {
		if v == id {
			c.IDs = append(c.IDs[:i:i], c.IDs[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether id is in the list.
func (c *CompareList) Contains(id int64) bool {
	for _, v := range c.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Compare reads the session's comparison list.
func (s *Session) Compare() (*CompareList, error) {
	var c CompareList
	if _, err := s.Get(compareKey, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetCompare stores c in the session.
func (s *Session) SetCompare(c *CompareList) error {
	return s.Set(compareKey, c)
}
