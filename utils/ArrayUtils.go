package utils

func SliceContains(slice []string, val string) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}

// UniqueSet drops empty strings and repeated values, keeping the first occurrence order.
func UniqueSet(slice []string) []string {
	set := map[string]bool{}
	result := make([]string, 0, len(slice))
	for _, v := range slice {
		if v == "" || set[v] {
			continue
		}
		set[v] = true
		result = append(result, v)
	}
	return result
}

func ChunkSlice(slice []string, size int) [][]string {
	if size <= 0 {
		size = len(slice)
	}
	chunks := make([][]string, 0, (len(slice)+size-1)/max(size, 1))
	for start := 0; start < len(slice); start += size {
		end := min(start+size, len(slice))
		chunks = append(chunks, slice[start:end])
	}
	return chunks
}
