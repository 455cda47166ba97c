// ABOUTME: Tests for the shared form theme
// ABOUTME: Guards the single-copy palette used by every huh form

package styles

import "testing"

func TestFormThemeUsesPalette(t *testing.T) {
	theme := FormTheme()
	if theme == nil {
		t.Fatal("expected a theme")
	}
	if got := theme.Focused.Base.GetBorderLeftForeground(); got != Primary {
		t.Errorf("expected focused border in the primary color, got %v", got)
	}
	if got := theme.Group.Title.GetForeground(); got != Primary {
		t.Errorf("expected group title in the primary color, got %v", got)
	}
}
