package conversation

import "strings"

// citationDelimiter は回答テキスト内で引用元IDを囲む区切り文字
const citationDelimiter = "```"

// ExtractSourceIDs は回答テキストから引用元IDを出現順に抜き出す。
// IDは区切り文字で囲まれているため、区切り文字で分割した奇数番目の
// 断片がIDになる。重複は除去しない
func ExtractSourceIDs(answer string) []string {
	parts := strings.Split(answer, citationDelimiter)

	var ids []string
	for i := 1; i < len(parts); i += 2 {
		ids = append(ids, parts[i])
	}
	return ids
}

// RemoveInvalidCitations はinvalidIDsの引用マーカーを回答テキストから
// 取り除く。単純な文字列置換なので、同じIDが有効な位置と無効な位置の
// 両方に現れた場合は両方とも除去される
func RemoveInvalidCitations(answer string, invalidIDs []string) string {
	for _, id := range invalidIDs {
		answer = strings.ReplaceAll(answer, citationDelimiter+id+citationDelimiter, "")
	}
	return answer
}
