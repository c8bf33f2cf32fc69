// Package i18n holds translatable copy for the dashboard pages. English is
// the base locale; Japanese mirrors the lab's original tooling.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Copy holds translatable copy for dashboard pages.
type Copy struct {
	AppTitle           string
	MetaDescription    string
	NavDashboard       string
	NavDatasets        string
	ControlsHeading    string
	GroupsLabel        string
	MiceLabel          string
	ControlGroupLabel  string
	DrugALabel         string
	DrugBLabel         string
	ThresholdLabel     string
	ThresholdHelp      string
	BootstrapLabel     string
	ApplyLabel         string
	GroupMeanHeading   string
	PerMouseHeading    string
	EndpointHeading    string
	BlissHeading       string
	CombinationHeading string
	GrowthHeading      string
	DatasetsHeading    string
	UploadedAt         string
	Measurements       string
	NoData             string
	NoEndpoint         string
	NoBliss            string
	NoCombo            string
	ErrControlMissing  string
	ErrControlMean     string
	NoComboIndex       string
	ErrNotFound        string
}

type entry struct {
	key string
	en  string
	ja  string
}

var entries = []entry{
	{"app.title", "Tumorboard", "Tumorboard"},
	{"meta.description", "Mouse tumor volume dashboard with TGI, Bliss, and combination-index analytics.", "マウス腫瘍体積の可視化と TGI・Bliss・併用指数解析のダッシュボード。"},
	{"nav.dashboard", "Dashboard", "ダッシュボード"},
	{"nav.datasets", "Datasets", "データセット"},
	{"controls.heading", "Filters & settings", "フィルター & 設定"},
	{"controls.groups", "Groups", "Group を選択"},
	{"controls.mice", "Mouse IDs (optional)", "Mouse ID を選択（任意）"},
	{"controls.control_group", "Control group", "コントロール群"},
	{"controls.drug_a", "Drug A group", "Drug A 群"},
	{"controls.drug_b", "Drug B group", "Drug B 群"},
	{"controls.threshold", "Humane endpoint volume", "人道的エンドポイントとなる腫瘍体積"},
	{"controls.threshold_help", "TGI is computed at the day before the first mouse reaches this volume.", "この腫瘍体積に初めて到達した個体の直前 day を基準に TGI を算出します。"},
	{"controls.bootstrap", "Bootstrap resamples", "ブートストラップ回数"},
	{"controls.apply", "Apply", "適用"},
	{"section.group_mean", "Mean tumor volume by group", "グループ別の腫瘍体積推移（平均）"},
	{"section.per_mouse", "Per-mouse volume by group", "群ごとの個体別腫瘍体積推移"},
	{"section.endpoint", "Endpoint-day snapshot + TGI", "人道的エンドポイント直前 day の全個体データ + TGI"},
	{"section.endpoint_summary", "Evaluation day %g (threshold %g, control %s)", "評価 day = %g（閾値 %g、コントロール群 %s）"},
	{"section.bliss", "Bliss independence expected TGI", "Bliss independence model による期待 TGI"},
	{"section.combination", "Combination index (95% bootstrap CI)", "Combination Index（CI）と 95%CI（Bootstrap）"},
	{"section.growth", "Fitted growth rates", "増殖速度の推定"},
	{"section.datasets", "Dataset versions", "データセットのバージョン"},
	{"datasets.uploaded_at", "Uploaded", "アップロード日時"},
	{"datasets.measurements", "Measurements", "測定数"},
	{"msg.no_data", "No data matches the selected filters.", "選択された条件に該当するデータがありません。"},
	{"msg.no_endpoint", "No mouse reached the endpoint threshold.", "腫瘍体積が閾値に到達する個体はいませんでした。"},
	{"msg.no_bliss", "A single-agent arm has no data at the evaluation day, so Bliss and the combination index are not defined.", "評価 day に単剤群のデータがないため、Bliss と CI は計算できません。"},
	{"msg.no_combo", "No combination group (Combo/A+B/DrugAB) is present.", "Combo 群（A+B）がデータに存在しないため、CI は計算できません。"},
	{"err.control_missing", "The control group has no data at the evaluation day.", "評価 day にコントロール群のデータがないため、TGI を計算できません。"},
	{"err.control_mean", "The control group mean volume is not positive.", "コントロール群の平均腫瘍体積が 0 以下のため、TGI を計算できません。"},
	{"msg.no_combo_index", "The combination group TGI is not positive, so the index is undefined.", "併用群の TGI が 0 以下のため、CI を計算できません。"},
	{"err.not_found", "Dataset not found.", "データセットが見つかりません。"},
}

func init() {
	for _, e := range entries {
		_ = message.SetString(language.English, e.key, e.en)
		_ = message.SetString(language.Japanese, e.key, e.ja)
	}
}

// Dashboard returns localized dashboard copy for the provided language tag.
func Dashboard(tag language.Tag) Copy {
	loc := message.NewPrinter(normalizeTag(tag))
	get := func(key string) string { return loc.Sprintf(key) }

	return Copy{
		AppTitle:           get("app.title"),
		MetaDescription:    get("meta.description"),
		NavDashboard:       get("nav.dashboard"),
		NavDatasets:        get("nav.datasets"),
		ControlsHeading:    get("controls.heading"),
		GroupsLabel:        get("controls.groups"),
		MiceLabel:          get("controls.mice"),
		ControlGroupLabel:  get("controls.control_group"),
		DrugALabel:         get("controls.drug_a"),
		DrugBLabel:         get("controls.drug_b"),
		ThresholdLabel:     get("controls.threshold"),
		ThresholdHelp:      get("controls.threshold_help"),
		BootstrapLabel:     get("controls.bootstrap"),
		ApplyLabel:         get("controls.apply"),
		GroupMeanHeading:   get("section.group_mean"),
		PerMouseHeading:    get("section.per_mouse"),
		EndpointHeading:    get("section.endpoint"),
		BlissHeading:       get("section.bliss"),
		CombinationHeading: get("section.combination"),
		GrowthHeading:      get("section.growth"),
		DatasetsHeading:    get("section.datasets"),
		UploadedAt:         get("datasets.uploaded_at"),
		Measurements:       get("datasets.measurements"),
		NoData:             get("msg.no_data"),
		NoEndpoint:         get("msg.no_endpoint"),
		NoBliss:            get("msg.no_bliss"),
		NoCombo:            get("msg.no_combo"),
		ErrControlMissing:  get("err.control_missing"),
		ErrControlMean:     get("err.control_mean"),
		NoComboIndex:       get("msg.no_combo_index"),
		ErrNotFound:        get("err.not_found"),
	}
}

// EndpointSummaryText formats the localized evaluation-day summary line.
func EndpointSummaryText(tag language.Tag, day, threshold float64, control string) string {
	loc := message.NewPrinter(normalizeTag(tag))
	return loc.Sprintf("section.endpoint_summary", day, threshold, control)
}

// ParseLanguage resolves a requested language string to a supported tag.
// Unknown or empty values fall back to English.
func ParseLanguage(value string) language.Tag {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.English
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.English
	}
	return normalizeTag(tag)
}

func normalizeTag(tag language.Tag) language.Tag {
	base, _ := tag.Base()
	japaneseBase, _ := language.Japanese.Base()
	if base == japaneseBase {
		return language.Japanese
	}
	return language.English
}
