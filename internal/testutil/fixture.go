// Package testutil provides Java fixture trees for tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteTree materialises files (relative path -> content) under root and
// returns root. Parent directories are created as needed.
func WriteTree(t *testing.T, root string, files map[string]string) string {
	t.Helper()

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(files[rel]), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	return root
}

// ShopProject writes the shop fixture into a fresh temp dir and returns it.
func ShopProject(t *testing.T) string {
	t.Helper()
	return WriteTree(t, t.TempDir(), ShopFiles())
}

// Shop fixture signatures, for assertions.
const (
	ShopPlace  = "com.shop.order.OrderController.place(String, int)"
	ShopLabel  = "com.shop.order.OrderController.label()"
	ShopCreate = "com.shop.order.service.OrderServiceImpl.create(String, int)"
	ShopCancel = "com.shop.order.service.OrderServiceImpl.cancel(Long)"
	ShopSave   = "com.shop.order.repo.OrderRepository.save(String)"
	ShopDelete = "com.shop.order.repo.OrderRepository.delete(Long)"
	ShopAudit  = "com.shop.order.repo.OrderRepository.audit(String)"
)

// ShopFiles returns the shop fixture: a controller calling an interface
// typed service field, a conventional Impl, and a repository.
//
//	place -> create -> save
//	cancel -> delete
func ShopFiles() map[string]string {
	return map[string]string{
		"src/main/java/com/shop/order/OrderController.java": `package com.shop.order;

import com.shop.order.service.OrderService;
import org.springframework.web.bind.annotation.RestController;

/**
 * Order endpoints.
 */
@RestController
public class OrderController {

    @Autowired
    private OrderService orderService;

    private String name;

    @PostMapping("/orders")
    public Long place(@RequestBody String payload, int qty) {
        return orderService.create(payload, qty);
    }

    public String label() {
        return name;
    }
}
`,
		"src/main/java/com/shop/order/service/OrderService.java": `package com.shop.order.service;

public interface OrderService {

    Long create(String payload, int qty);

    void cancel(Long id);
}
`,
		"src/main/java/com/shop/order/service/OrderServiceImpl.java": `package com.shop.order.service;

import com.shop.order.repo.OrderRepository;

// Default order service.
@Service
public class OrderServiceImpl implements OrderService {

    @Autowired
    private OrderRepository orderRepository;

    @Override
    public Long create(String payload, int qty) {
        if (qty <= 0) {
            throw new IllegalArgumentException("qty must be positive");
        }
        return orderRepository.save(payload);
    }

    @Override
    public void cancel(Long id) {
        orderRepository.delete(id);
    }
}
`,
		"src/main/java/com/shop/order/repo/OrderRepository.java": `package com.shop.order.repo;

public class OrderRepository {

    private final Map<String, Long> rows = new HashMap<>();

    public Long save(String payload) {
        String brace = "}";
        audit(payload);
        return rows.getOrDefault(payload, 1L);
    }

    public void delete(Long id) {
        // nothing to close here {
        rows.clear();
    }

    private void audit(String payload) {
        System.out.println(payload);
    }
}
`,
		"src/main/java/com/shop/order/dto/OrderDto.java": `package com.shop.order.dto;

public class OrderDto {
    private String id;

    public String getId() {
        return id;
    }
}
`,
	}
}
