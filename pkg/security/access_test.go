package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/filedeck/pkg/security"
)

func TestValidateAccessPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want error
	}{
		{"uploads/3f0c2f8e-1b6a-4d0e-9d7c-3b2f3c1d9a10", nil},
		{"uploads/report.pdf", nil},
		{"", security.ErrPathRequired},
		{"../secret", security.ErrForbiddenPath},
		{"uploads/../../etc", security.ErrForbiddenPath},
		{"~root/.ssh", security.ErrForbiddenPath},
		{"/etc/passwd", security.ErrForbiddenPath},
		{"uploads/shell.php", security.ErrForbiddenType},
		{"uploads/SETUP.EXE", security.ErrForbiddenType},
		{"uploads/page.jsp", security.ErrForbiddenType},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			err := security.ValidateAccessPath(tt.path)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
