package models

// Setting maps to the `settings` table: a generic key-value store for
// runtime-tunable values (welcome text, support contact).
type Setting struct {
	Key   string `gorm:"column:key;primaryKey;size:128" json:"key"`
	Value string `gorm:"column:value;size:1024" json:"value"`
}

func (Setting) TableName() string {
	return "settings"
}
