package utils

import "strings"

// ExtractData slices text between a start anchor and an optional end
// anchor. All occurrences are collected when both anchors repeat. A
// missing start anchor yields the single sentinel entry "None", which
// callers test for instead of a boolean.
func ExtractData(text, start, end string) []string {
	var dataList []string
	startIndex := strings.Index(text, start)

	if startIndex == -1 {
		return []string{"None"}
	}

	for startIndex != -1 {
		startIndex += len(start)

		if end == "" {
			dataList = append(dataList, strings.TrimSpace(text[startIndex:]))
			break
		}

		endIndex := strings.Index(text[startIndex:], end)
		if endIndex == -1 {
			dataList = append(dataList, strings.TrimSpace(text[startIndex:]))
			break
		}
		endIndex += startIndex
		dataList = append(dataList, strings.TrimSpace(text[startIndex:endIndex]))

		next := strings.Index(text[endIndex:], start)
		if next == -1 {
			break
		}
		startIndex = endIndex + next
	}

	return dataList
}

// ExtractFirst returns the first slice between the anchors.
func ExtractFirst(text, start, end string) string {
	return ExtractData(text, start, end)[0]
}

// RemoveTagBetween strips substrings spanning from start to end
// markers, such as embedded anchor tags in chat transcripts.
func RemoveTagBetween(input, start, end string) string {
	for {
		i := strings.Index(input, start)
		if i == -1 {
			return input
		}
		j := strings.Index(input[i:], end)
		if j == -1 {
			return input
		}
		input = input[:i] + input[i+j+len(end):]
	}
}
