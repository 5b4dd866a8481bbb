package pipeline

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

func digest(parts ...string) string {
	h := md5.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func analysisKey(text, stylePrompt string, maxSegments int) string {
	return "analysis:" + digest(text, stylePrompt, strconv.Itoa(maxSegments))
}

func cardKey(url, summary, content string) string {
	return "card:" + digest(url, summary, content)
}
