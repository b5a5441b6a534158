package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salarysms/salary-bot/internal/bot/keyboard"
)

type mockTranslator struct {
	translations map[string]string
	lang         string
}

func (m *mockTranslator) T(key string) string {
	if val, ok := m.translations[key]; ok {
		return val
	}
	return key
}

func (m *mockTranslator) Lang() string {
	if m.lang == "" {
		return "ru"
	}
	return m.lang
}

func TestPaginationButtons(t *testing.T) {
	translator := &mockTranslator{
		translations: map[string]string{
			"pagination.pagination_prev": "◀️ Назад",
			"pagination.pagination_next": "Вперёд ▶️",
			"pagination.pagination_page": "Стр. {{.Page}}/{{.Total}}",
		},
	}

	testCases := []struct {
		name      string
		page      int
		total     int
		wantTexts []string
		wantData  []string
	}{
		{
			name:      "first page",
			page:      1,
			total:     5,
			wantTexts: []string{"Стр. 1/5", "Вперёд ▶️"},
			wantData:  []string{"1", "2"},
		},
		{
			name:      "middle page",
			page:      3,
			total:     5,
			wantTexts: []string{"◀️ Назад", "Стр. 3/5", "Вперёд ▶️"},
			wantData:  []string{"2", "3", "4"},
		},
		{
			name:      "last page",
			page:      5,
			total:     5,
			wantTexts: []string{"◀️ Назад", "Стр. 5/5"},
			wantData:  []string{"4", "5"},
		},
		{
			name:      "single page",
			page:      1,
			total:     1,
			wantTexts: []string{"Стр. 1/1"},
			wantData:  []string{"1"},
		},
		{
			name:      "page clamped to range",
			page:      9,
			total:     2,
			wantTexts: []string{"◀️ Назад", "Стр. 2/2"},
			wantData:  []string{"1", "2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buttons := keyboard.PaginationButtons(translator, "userdata_page", tc.page, tc.total)
			require.Len(t, buttons, len(tc.wantTexts))

			for i := range tc.wantTexts {
				assert.Equal(t, tc.wantTexts[i], buttons[i].Text)
				assert.Equal(t, "userdata_page", buttons[i].Unique)
				assert.Equal(t, tc.wantData[i], buttons[i].Data)
			}
		})
	}
}

func TestBuilderConfirmButtons(t *testing.T) {
	kb := keyboard.NewBuilder(nil)

	markup := kb.ConfirmButtons(nil, "purge", "42")
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)

	assert.Equal(t, "purge_confirm", markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "purge_confirm:42", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "purge_cancel", markup.InlineKeyboard[0][1].Unique)
}
