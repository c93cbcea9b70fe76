package optional

import "testing"

func TestValue(t *testing.T) {

	// Verify that None creates a Value with an indirect == nil
	t.Run("None works as intended", func(t *testing.T) {
		v := None[int]()
		if v.indirect != nil {
			t.Fatal("should be nil")
		}
	})

	t.Run("Some works as intended", func(t *testing.T) {

		// Verify that Some(value) creates a valid underlying pointer to
		// the value when the wrapped type is not a pointer.
		t.Run("for nonzero nonpointer value", func(t *testing.T) {
			underlying := 12345
			v := Some(underlying)
			if v.indirect == nil || *v.indirect != underlying {
				t.Fatal("unexpected indirect")
			}
		})

		// Verify that Some(value) works for a zero input when the
		// wrapped value is not a pointer.
		t.Run("for zero nonpointer value", func(t *testing.T) {
			underlying := 0
			v := Some(underlying)
			if v.indirect == nil || *v.indirect != underlying {
				t.Fatal("unexpected indirect")
			}
		})

		// Verify that Some(value) correctly creates a pointer to the
		// underlying value when we're wrapping a pointer type
		t.Run("for nonzero pointer value", func(t *testing.T) {
			underlying := 12345
			v := Some(&underlying)
			if v.indirect == nil || *v.indirect == nil || **v.indirect != underlying {
				t.Fatal("unexpected indirect")
			}
		})

		// Verify that Some(nil) creates an empty value when wrapping a pointer
		t.Run("for nil pointer value", func(t *testing.T) {
			var underlying *int
			v := Some(underlying)
			if v.indirect != nil {
				t.Fatal("unexpected indirect", *v.indirect)
			}
		})
	})

	t.Run("IsNone works as intended", func(t *testing.T) {
		t.Run("for empty Value", func(t *testing.T) {
			value := None[int]()
			if !value.IsNone() {
				t.Fatal("should be none")
			}
		})

		t.Run("for nonempty Value", func(t *testing.T) {
			value := Some(12345)
			if value.IsNone() {
				t.Fatal("should not be none")
			}
		})
	})

	t.Run("Unwrap works as intended", func(t *testing.T) {
		t.Run("for an empty Value", func(t *testing.T) {
			value := None[int]()
			var err error
			func() {
				defer func() {
					err = recover().(error)
				}()
				out := value.Unwrap()
				t.Log(out)
			}()
			if err == nil || err.Error() != "is none" {
				t.Fatal("unexpected err", err)
			}
		})

		t.Run("for a nonempty Value", func(t *testing.T) {
			value := Some(12345)
			if out := value.Unwrap(); out != 12345 {
				t.Fatal("unexpected value", out)
			}
		})
	})

	t.Run("UnwrapOr works as intended", func(t *testing.T) {
		t.Run("for an empty Value", func(t *testing.T) {
			value := None[int]()
			if out := value.UnwrapOr(555); out != 555 {
				t.Fatal("unexpected value", out)
			}
		})

		t.Run("for a nonempty Value", func(t *testing.T) {
			value := Some(12345)
			if out := value.UnwrapOr(555); out != 12345 {
				t.Fatal("unexpected value", out)
			}
		})
	})
}
