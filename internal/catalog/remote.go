package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRemoteURL = "https://raw.githubusercontent.com/rn0x/Adhkar-json/main/adhkar.json"
	audioBaseURL     = "https://raw.githubusercontent.com/rn0x/Adhkar-json/main"

	userAgent = "azkar-daemon/1.0 (https://github.com/MahMoudMostaAfa/azkar)"
)

// remoteCategoryKeys maps the remote source's Arabic section names to
// internal category keys. Unmapped sections are skipped.
var remoteCategoryKeys = map[string][]string{
	"أذكار الصباح والمساء":                      {"morning", "evening"},
	"أذكار النوم":                               {"sleep"},
	"أذكار الاستيقاظ من النوم":                  {"wakeup"},
	"الأذكار بعد السلام من الصلاة":              {"afterPrayer"},
	"أذكار الآذان":                              {"adhan"},
	"الاستغفار و التوبة":                        {"forgiveness"},
	"ما يقول لرد كيد مردة الشياطين":             {"protection"},
	"فضل التسبيح و التحميد، و التهليل، و التكبير": {"general"},
	"دعاء الهم والحزن":                          {"dua"},
	"دعاء الكرب":                                {"dua"},
	"دعاء السفر":                                {"travel"},
	"الدعاء قبل الطعام":                         {"food"},
	"الدعاء عند الفراغ من الطعام":               {"food"},
	"دعاء دخول المسجد":                          {"mosque"},
	"دعاء الخروج من المسجد":                     {"mosque"},
	"الذكر عند الخروج من المنزل":                {"general"},
	"الذكر عند دخول المنزل":                     {"general"},
	"دعاء الركوب":                               {"travel"},
	"دعاء المسافر للمقيم":                       {"travel"},
	"دعاء المقيم للمسافر":                       {"travel"},
	"دعاء دخول السوق":                           {"general"},
	"دعاء الريح":                                {"dua"},
	"دعاء الرعد":                                {"dua"},
	"الدعاء إذا نزل المطر":                      {"dua"},
	"دعاء رؤية الهلال":                          {"dua"},
	"الدعاء عند إفطار الصائم":                   {"dua"},
	"دعاء الاستفتاح":                            {"afterPrayer"},
	"دعاء الركوع":                               {"afterPrayer"},
	"دعاء السجود":                               {"afterPrayer"},
	"دعاء الغضب":                                {"dua"},
	"دعاء من رأى مبتلى":                         {"dua"},
	"دعاء المريض في عيادته":                     {"dua"},
	"ما يعوذ به الأولاد":                        {"protection"},
	"كفارة اﻟﻤﺠلس":                              {"general"},
	"الدعاء لمن صنع إليك معروفا":                {"dua"},
	"دعاء الخوف من الشرك":                       {"protection"},
	"ما يقال للكافر إذا عطس فحمد الله":          {"general"},
	"دعاء العطاس":                               {"general"},
	"الدعاء للمتزوج":                            {"dua"},
	"دعاء صلاة الاستخارة":                       {"dua"},
	"دعاء قنوت الوتر":                           {"dua"},
	"الذكر عقب السلام من الوتر":                 {"afterPrayer"},
	"ما يقول من أتاه أمر يسره أو يكرهه":         {"general"},
	"فضل الصلاة على النبي صلى الله عليه و سلم":  {"general"},
	"من أنواع الخير والآداب الجامعة":            {"general"},
	"دعاء الوسوسة في الصلاة و القراءة":          {"protection"},
	"ما يقول ويفعل من أذنب ذنبا":                {"forgiveness"},
	"دعاء طرد الشيطان و وساوسه":                 {"protection"},
	"دعاء من أصابه وسوسة في الإيمان":            {"protection"},
	"دعاء لقاء العدو و ذي السلطان":              {"dua"},
	"دعاء من خاف ظلم السلطان":                   {"dua"},
	"الدعاء على العدو":                          {"dua"},
	"ما يقول من خاف قوما":                       {"protection"},
	"دعاء قضاء الدين":                           {"dua"},
	"دعاء من استصعب عليه أمر":                   {"dua"},
}

// remoteSection is one category block of the remote dataset.
type remoteSection struct {
	Category string `json:"category"`
	Audio    string `json:"audio"`
	Array    []struct {
		Text  string          `json:"text"`
		Count json.RawMessage `json:"count"`
		Audio string          `json:"audio"`
	} `json:"array"`
}

// Client fetches the remote dhikr dataset.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a remote catalog client. An empty url uses the
// default source.
func NewClient(url string) *Client {
	if url == "" {
		url = defaultRemoteURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) fetch(ctx context.Context) ([]remoteSection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var sections []remoteSection
	if err := json.NewDecoder(resp.Body).Decode(&sections); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return sections, nil
}

// Fetch downloads the remote dataset and transforms it to the internal
// format, copying translations from the built-in collection where the
// Arabic text matches.
func (c *Client) Fetch(ctx context.Context) (Data, error) {
	sections, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	data := transformRemote(sections)
	mergeTranslations(data, Builtin())
	return data, nil
}

// AdhanAudioURL fetches the adhan recording URL from the remote source.
func (c *Client) AdhanAudioURL(ctx context.Context) (string, error) {
	sections, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range sections {
		if s.Category == "أذكار الآذان" && s.Audio != "" {
			return AudioURL(s.Audio), nil
		}
	}
	return "", nil
}

// AudioURL builds a full audio URL from a path relative to the remote
// dataset root.
func AudioURL(relative string) string {
	if relative == "" {
		return ""
	}
	if !strings.HasPrefix(relative, "/") {
		relative = "/" + relative
	}
	return audioBaseURL + relative
}

func transformRemote(sections []remoteSection) Data {
	data := Data{}
	for _, key := range categoryKeys() {
		data[key] = []Dhikr{}
	}

	globalID := 1
	for _, section := range sections {
		keys, ok := remoteCategoryKeys[section.Category]
		if !ok {
			continue
		}

		sectionAudio := AudioURL(section.Audio)
		morningEvening := section.Category == "أذكار الصباح والمساء"

		for _, item := range section.Array {
			text := strings.TrimSpace(
				strings.NewReplacer("((", "", "))", "").Replace(item.Text))
			if text == "" {
				continue
			}

			d := Dhikr{
				ID:               fmt.Sprintf("api_%d", globalID),
				Arabic:           text,
				Source:           section.Category,
				Times:            parseCount(item.Count),
				AudioURL:         sectionAudio,
				CategoryAudioURL: sectionAudio,
			}
			globalID++
			if item.Audio != "" {
				d.AudioURL = AudioURL(item.Audio)
			}

			if morningEvening {
				m := d
				m.ID = fmt.Sprintf("api_m_%d", globalID)
				m.Category = "morning"
				globalID++
				e := d
				e.ID = fmt.Sprintf("api_e_%d", globalID)
				e.Category = "evening"
				globalID++
				data["morning"] = append(data["morning"], m)
				data["evening"] = append(data["evening"], e)
				continue
			}

			for _, key := range keys {
				entry := d
				entry.Category = key
				data[key] = append(data[key], entry)
			}
		}
	}
	return data
}

// parseCount handles the remote count field, which is sometimes a number
// and sometimes a string.
func parseCount(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// mergeTranslations copies translations and transliterations from the
// built-in collection into remote entries with matching Arabic text.
func mergeTranslations(data, local Data) {
	lookup := map[string]Dhikr{}
	for _, items := range local {
		for _, item := range items {
			lookup[matchKey(item.Arabic)] = item
		}
	}

	for key, items := range data {
		for i, item := range items {
			match, ok := lookup[matchKey(item.Arabic)]
			if !ok {
				continue
			}
			if item.Translation == "" {
				items[i].Translation = match.Translation
			}
			if item.Transliteration == "" {
				items[i].Transliteration = match.Transliteration
			}
			if match.Source != "" {
				items[i].Source = match.Source
			}
		}
		data[key] = items
	}
}

// matchKey normalizes Arabic text for fuzzy matching: tashkeel marks are
// stripped, whitespace collapsed, and the prefix truncated.
func matchKey(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= 0x064B && r <= 0x065F || r == 0x0670 {
			continue
		}
		b.WriteRune(r)
	}
	normalized := strings.Join(strings.Fields(b.String()), " ")

	runes := []rune(normalized)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	return string(runes)
}
