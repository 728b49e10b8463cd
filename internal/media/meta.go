package media

import (
	"encoding/json"
	"fmt"
)

// legacyDefaultDimension 旧数据中裸字符串条目没有尺寸信息，读取时按此值补齐
const legacyDefaultDimension = 1000

// ImageMeta 实体图片字段中单张图片的落库格式
type ImageMeta struct {
	URL string `json:"url"`
	W   int    `json:"w"`
	H   int    `json:"h"`
}

// UnmarshalJSON 兼容旧格式：裸字符串视为 {url, 1000, 1000}
func (m *ImageMeta) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		m.URL = s
		m.W = legacyDefaultDimension
		m.H = legacyDefaultDimension
		return nil
	}

	type plain ImageMeta
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = ImageMeta(p)
	return nil
}

// DecodeBatch 解析实体的图片批次字段
func DecodeBatch(raw string) ([]ImageMeta, error) {
	if raw == "" {
		return nil, nil
	}
	var metas []ImageMeta
	if err := json.Unmarshal([]byte(raw), &metas); err != nil {
		return nil, fmt.Errorf("failed to decode image batch: %w", err)
	}
	return metas, nil
}

// EncodeBatch 序列化图片批次字段，顺序即语义（首图为封面）
func EncodeBatch(metas []ImageMeta) (string, error) {
	if len(metas) == 0 {
		return "", nil
	}
	data, err := json.Marshal(metas)
	if err != nil {
		return "", fmt.Errorf("failed to encode image batch: %w", err)
	}
	return string(data), nil
}

// References 提取批次内的存储标识符
func References(metas []ImageMeta) []string {
	refs := make([]string, 0, len(metas))
	for _, m := range metas {
		refs = append(refs, m.URL)
	}
	return refs
}
