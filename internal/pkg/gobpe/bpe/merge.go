package bpe

// ApplyMerge replaces every non-overlapping occurrence of pair, scanning left
// to right, with id. The input slice is not modified.
func ApplyMerge(ids []int, pair Pair, id int) []int {
	out := make([]int, 0, len(ids))
	for i := 0; i < len(ids); {
		if i+1 < len(ids) && ids[i] == pair.A && ids[i+1] == pair.B {
			out = append(out, id)
			i += 2
		} else {
			out = append(out, ids[i])
			i++
		}
	}
	return out
}
