package analyzer

import "testing"

const cSample = `#include <stdio.h>
#include "buffer.h"

#define MAX_BUFFERS 16
#define ALIGN(x) (((x) + 7) & ~7)

static int buffer_count = 0;

typedef struct {
    char *data;
    size_t len;
} buffer_t;

struct pool {
    buffer_t slots[MAX_BUFFERS];
    int used;
};

static buffer_t *buffer_alloc(size_t len, int flags) {
    if (len == 0) {
        return NULL;
    }
    return NULL;
}

void buffer_free(buffer_t *buf) {
    free(buf->data);
}
`

func Test_CAnalyzer_ExtractsStructure(t *testing.T) {
	payload, err := (&CAnalyzer{}).Analyze([]byte(cSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payload.Imports) != 2 || payload.Imports[0] != "stdio.h" || payload.Imports[1] != "buffer.h" {
		t.Errorf("unexpected includes %v", payload.Imports)
	}
	if len(payload.Defines) != 2 || payload.Defines[0] != "MAX_BUFFERS" || payload.Defines[1] != "ALIGN" {
		t.Errorf("unexpected defines %v", payload.Defines)
	}

	if len(payload.Structs) != 2 {
		t.Fatalf("expected buffer_t and pool, got %v", payload.Structs)
	}
	bufferStruct := payload.Structs[0]
	if bufferStruct.Name != "buffer_t" || !bufferStruct.IsTypedef {
		t.Errorf("unexpected typedef struct %+v", bufferStruct)
	}
	if len(bufferStruct.Members) != 2 || bufferStruct.Members[0] != "data" || bufferStruct.Members[1] != "len" {
		t.Errorf("unexpected members %v", bufferStruct.Members)
	}
	pool := payload.Structs[1]
	if pool.Name != "pool" || pool.IsTypedef {
		t.Errorf("unexpected struct %+v", pool)
	}

	funcNames := make(map[string]bool)
	for _, fn := range payload.Functions {
		funcNames[fn.Name] = true
	}
	if !funcNames["buffer_alloc"] || !funcNames["buffer_free"] {
		t.Errorf("expected buffer_alloc and buffer_free, got %v", payload.Functions)
	}
	if funcNames["if"] {
		t.Errorf("control flow matched as function: %v", payload.Functions)
	}

	hasGlobal := false
	for _, v := range payload.Variables {
		if v == "buffer_count" {
			hasGlobal = true
		}
	}
	if !hasGlobal {
		t.Errorf("expected buffer_count global, got %v", payload.Variables)
	}
}

func Test_CAnalyzer_IgnoresCommentedCode(t *testing.T) {
	src := []byte("// #include <old.h>\n/* void dead_func(int x) { } */\n#include <new.h>\n")
	payload, err := (&CAnalyzer{}).Analyze(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.Imports) != 1 || payload.Imports[0] != "new.h" {
		t.Errorf("expected commented include skipped, got %v", payload.Imports)
	}
	if len(payload.Functions) != 0 {
		t.Errorf("expected commented function skipped, got %v", payload.Functions)
	}
}

const cppSample = `#include <vector>

namespace engine {

template <typename T>
class Registry : public Store<T>, private NonCopyable {
public:
    void add(const T &item);
    T *find(int id) const;
};

class Session {
public:
    Session();
    void close();
};

}
`

func Test_CppAnalyzer_ExtractsClasses(t *testing.T) {
	payload, err := (&CppAnalyzer{}).Analyze([]byte(cppSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payload.Namespaces) != 1 || payload.Namespaces[0] != "engine" {
		t.Errorf("unexpected namespaces %v", payload.Namespaces)
	}

	if len(payload.Classes) != 2 {
		t.Fatalf("expected Registry and Session, got %v", payload.Classes)
	}

	registry := payload.Classes[0]
	if registry.Name != "Registry" || !registry.IsTemplate {
		t.Errorf("unexpected template class %+v", registry)
	}
	if len(registry.Bases) != 2 || registry.Bases[0] != "Store<T>" || registry.Bases[1] != "NonCopyable" {
		t.Errorf("expected access specifiers stripped from bases, got %v", registry.Bases)
	}
	methodNames := make(map[string]bool)
	for _, m := range registry.Methods {
		methodNames[m.Name] = true
	}
	if !methodNames["add"] || !methodNames["find"] {
		t.Errorf("unexpected methods %v", registry.Methods)
	}

	session := payload.Classes[1]
	if session.Name != "Session" || session.IsTemplate {
		t.Errorf("unexpected class %+v", session)
	}
}
